package analytics

import (
	"context"
	"sort"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// MerchantTotal is one counterparty's spending aggregate.
type MerchantTotal struct {
	MerchantID string  `json:"merchant_id,omitempty"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Visits     int     `json:"visits"`
	AvgCheck   float64 `json:"avg_check"`
	LastVisit  string  `json:"last_visit"`
	SharePct   float64 `json:"share_pct"`
}

// MerchantsResult is the spending-by-counterparty breakdown.
type MerchantsResult struct {
	Period        Period          `json:"period"`
	TotalOutcome  float64         `json:"total_outcome"`
	Currency      string          `json:"currency"`
	Merchants     []MerchantTotal `json:"merchants"`
	ReturnedCount int             `json:"returned_count"`
	TotalCount    int             `json:"total_count"`
	SkippedNoRate int             `json:"skipped_no_rate,omitempty"`
}

// Merchants aggregates expenses by counterparty, preferring the merchant
// directory entry and falling back to the free-text payee. categoryID, when
// set, restricts to that category's subtree.
func (s *Service) Merchants(ctx context.Context, period, categoryID string, topN int) (*MerchantsResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	conv, err := s.newConverter(ctx)
	if err != nil {
		return nil, err
	}
	merchants, err := s.merchants.ByID(ctx)
	if err != nil {
		return nil, err
	}
	p := parsePeriod(period, s.now())
	if topN <= 0 {
		topN = s.cfg.DefaultLimit
	}

	var rollup map[string]bool
	if categoryID != "" {
		tags, err := s.tags.ByID(ctx)
		if err != nil {
			return nil, err
		}
		rollup = money.RollupSet(categoryID, tags)
	}

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom: p.Start,
		DateTo:   p.End,
		Kind:     "expense",
	})
	if err != nil {
		return nil, err
	}

	type agg struct {
		merchantID string
		name       string
		amount     float64
		count      int
		lastVisit  string
	}
	totals := map[string]*agg{}
	var totalOutcome float64

	for _, t := range txs {
		if rollup != nil && !rollup[t.PrimaryTag()] {
			continue
		}
		amount, ok := conv.toBase(t.Outcome, t.OutcomeInstrument)
		if !ok {
			continue
		}

		key := "unknown"
		name := "Unknown"
		var merchantID string
		if t.Merchant != nil {
			merchantID = *t.Merchant
			key = merchantID
			if title := merchants[merchantID].Title; title != "" {
				name = title
			}
		} else if t.Payee != nil && *t.Payee != "" {
			key = *t.Payee
			name = *t.Payee
		}

		a := totals[key]
		if a == nil {
			a = &agg{merchantID: merchantID, name: name, lastVisit: t.Date}
			totals[key] = a
		}
		a.amount += amount
		a.count++
		if t.Date > a.lastVisit {
			a.lastVisit = t.Date
		}
		totalOutcome += amount
	}

	list := make([]MerchantTotal, 0, len(totals))
	for _, a := range totals {
		mt := MerchantTotal{
			MerchantID: a.merchantID,
			Name:       a.name,
			Total:      round2(a.amount),
			Visits:     a.count,
			LastVisit:  a.lastVisit,
		}
		if a.count > 0 {
			mt.AvgCheck = round2(a.amount / float64(a.count))
		}
		if totalOutcome > 0 {
			mt.SharePct = round2(a.amount / totalOutcome * 100)
		}
		list = append(list, mt)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Total > list[j].Total })

	res := &MerchantsResult{
		Period:        p,
		TotalOutcome:  round2(totalOutcome),
		Currency:      conv.base.ShortTitle,
		TotalCount:    len(list),
		SkippedNoRate: conv.skipped,
	}
	if len(list) > topN {
		list = list[:topN]
	}
	res.Merchants = list
	res.ReturnedCount = len(list)
	return res, nil
}

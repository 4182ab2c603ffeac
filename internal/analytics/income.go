package analytics

import (
	"context"
	"sort"

	"github.com/jask/zenledger/internal/database/repository"
)

// SourceTotal is one income source (merchant or payee) aggregate.
type SourceTotal struct {
	Name       string  `json:"name"`
	MerchantID string  `json:"merchant_id,omitempty"`
	Amount     float64 `json:"amount"`
	SharePct   float64 `json:"share_pct"`
	Count      int     `json:"count"`
}

// IncomeResult breaks income down by category and by source.
type IncomeResult struct {
	Period             Period          `json:"period"`
	TotalIncome        float64         `json:"total_income"`
	Currency           string          `json:"currency"`
	Categories         []CategoryTotal `json:"categories"`
	Sources            []SourceTotal   `json:"sources"`
	ReturnedCategories int             `json:"returned_categories"`
	TotalCategories    int             `json:"total_categories"`
	ReturnedSources    int             `json:"returned_sources"`
	TotalSources       int             `json:"total_sources"`
	SkippedNoRate      int             `json:"skipped_no_rate,omitempty"`
}

// Income aggregates pure income (no outcome side) by primary category and
// by source, where source prefers the merchant directory title over the
// free-text payee.
func (s *Service) Income(ctx context.Context, period string, topN int) (*IncomeResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	conv, err := s.newConverter(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ByID(ctx)
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

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom: p.Start,
		DateTo:   p.End,
		Kind:     "income",
	})
	if err != nil {
		return nil, err
	}

	type agg struct {
		amount     float64
		count      int
		merchantID string
	}
	byCategory := map[string]*agg{}
	bySource := map[string]*agg{}
	var totalIncome float64

	for _, t := range txs {
		amount, ok := conv.toBase(t.Income, t.IncomeInstrument)
		if !ok {
			continue
		}
		totalIncome += amount

		primary := t.PrimaryTag()
		c := byCategory[primary]
		if c == nil {
			c = &agg{}
			byCategory[primary] = c
		}
		c.amount += amount
		c.count++

		source := "Unknown source"
		var merchantID string
		if t.Merchant != nil {
			merchantID = *t.Merchant
			source = merchants[merchantID].Title
			if source == "" {
				source = merchantID
			}
		} else if t.Payee != nil && *t.Payee != "" {
			source = *t.Payee
		}
		sc := bySource[source]
		if sc == nil {
			sc = &agg{merchantID: merchantID}
			bySource[source] = sc
		}
		sc.amount += amount
		sc.count++
	}

	categories := make([]CategoryTotal, 0, len(byCategory))
	for tagID, a := range byCategory {
		ct := CategoryTotal{TagID: tagID, Amount: round2(a.amount), Count: a.count}
		if tagID == "" {
			ct.Name = "Uncategorized"
		} else if ct.Name = tags[tagID].Title; ct.Name == "" {
			ct.Name = tagID
		}
		if totalIncome > 0 {
			ct.SharePct = round2(a.amount / totalIncome * 100)
		}
		categories = append(categories, ct)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Amount > categories[j].Amount })

	sources := make([]SourceTotal, 0, len(bySource))
	for name, a := range bySource {
		st := SourceTotal{Name: name, MerchantID: a.merchantID, Amount: round2(a.amount), Count: a.count}
		if totalIncome > 0 {
			st.SharePct = round2(a.amount / totalIncome * 100)
		}
		sources = append(sources, st)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Amount > sources[j].Amount })

	res := &IncomeResult{
		Period:          p,
		TotalIncome:     round2(totalIncome),
		Currency:        conv.base.ShortTitle,
		TotalCategories: len(categories),
		TotalSources:    len(sources),
		SkippedNoRate:   conv.skipped,
	}
	if len(categories) > topN {
		categories = categories[:topN]
	}
	if len(sources) > topN {
		sources = sources[:topN]
	}
	res.Categories = categories
	res.Sources = sources
	res.ReturnedCategories = len(categories)
	res.ReturnedSources = len(sources)
	return res, nil
}

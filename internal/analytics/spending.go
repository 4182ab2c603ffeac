package analytics

import (
	"context"
	"sort"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// SpendingOptions parameterizes the category spending breakdown.
type SpendingOptions struct {
	Period       string
	CategoryID   string
	TopN         int
	IncludeHolds bool
}

// CategoryTotal is one category's aggregate within a period.
type CategoryTotal struct {
	TagID    string  `json:"tag_id,omitempty"`
	Name     string  `json:"name"`
	Parent   string  `json:"parent_category,omitempty"`
	Amount   float64 `json:"amount"`
	SharePct float64 `json:"share_pct"`
	Count    int     `json:"count"`
	AvgCheck float64 `json:"avg_check"`
}

// ExcludedHolds tallies hold transactions kept out of the aggregate.
type ExcludedHolds struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// SpendingResult is the category spending breakdown for a period.
type SpendingResult struct {
	Period        Period          `json:"period"`
	TotalOutcome  float64         `json:"total_outcome"`
	Currency      string          `json:"currency"`
	Categories    []CategoryTotal `json:"categories"`
	Uncategorized *ExcludedHolds  `json:"uncategorized,omitempty"`
	HoldsExcluded *ExcludedHolds  `json:"holds_excluded,omitempty"`
	ReturnedCount int             `json:"returned_count"`
	TotalCount    int             `json:"total_count"`
	SkippedNoRate int             `json:"skipped_no_rate,omitempty"`
}

// Spending aggregates expenses by primary category. When CategoryID is set,
// only transactions tagged with it or any descendant count, so a parent's
// total always equals the sum over its subtree.
func (s *Service) Spending(ctx context.Context, opts SpendingOptions) (*SpendingResult, error) {
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
	period := parsePeriod(opts.Period, s.now())
	topN := opts.TopN
	if topN <= 0 {
		topN = s.cfg.DefaultLimit
	}

	var rollup map[string]bool
	if opts.CategoryID != "" {
		rollup = money.RollupSet(opts.CategoryID, tags)
	}

	// Holds come back from the query so their excluded amount can be
	// reported; they are dropped from the aggregate below.
	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom:     period.Start,
		DateTo:       period.End,
		Kind:         "expense",
		IncludeHolds: true,
	})
	if err != nil {
		return nil, err
	}

	type agg struct {
		amount float64
		count  int
	}
	totals := map[string]*agg{}
	holds := ExcludedHolds{}
	uncategorized := ExcludedHolds{}
	var totalOutcome float64

	for _, t := range txs {
		primary := t.PrimaryTag()
		if rollup != nil && !rollup[primary] {
			continue
		}
		amount, ok := conv.toBase(t.Outcome, t.OutcomeInstrument)
		if !ok {
			continue
		}
		if t.Hold && !opts.IncludeHolds {
			holds.Amount += amount
			holds.Count++
			continue
		}
		totalOutcome += amount
		if primary == "" {
			uncategorized.Amount += amount
			uncategorized.Count++
			continue
		}
		a := totals[primary]
		if a == nil {
			a = &agg{}
			totals[primary] = a
		}
		a.amount += amount
		a.count++
	}

	categories := make([]CategoryTotal, 0, len(totals))
	for tagID, a := range totals {
		ct := CategoryTotal{
			TagID:  tagID,
			Name:   tags[tagID].Title,
			Amount: round2(a.amount),
			Count:  a.count,
		}
		if ct.Name == "" {
			ct.Name = tagID
		}
		if parent := tags[tagID].Parent; parent != nil {
			ct.Parent = tags[*parent].Title
		}
		if totalOutcome > 0 {
			ct.SharePct = round2(a.amount / totalOutcome * 100)
		}
		if a.count > 0 {
			ct.AvgCheck = round2(a.amount / float64(a.count))
		}
		categories = append(categories, ct)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Amount > categories[j].Amount })

	res := &SpendingResult{
		Period:        period,
		TotalOutcome:  round2(totalOutcome),
		Currency:      conv.base.ShortTitle,
		TotalCount:    len(categories),
		SkippedNoRate: conv.skipped,
	}
	if len(categories) > topN {
		categories = categories[:topN]
	}
	res.Categories = categories
	res.ReturnedCount = len(categories)
	if uncategorized.Count > 0 {
		uncategorized.Amount = round2(uncategorized.Amount)
		res.Uncategorized = &uncategorized
	}
	if holds.Count > 0 {
		holds.Amount = round2(holds.Amount)
		res.HoldsExcluded = &holds
	}
	return res, nil
}

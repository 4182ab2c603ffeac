package analytics

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// SearchOptions narrows a transaction search. Zero values mean no
// constraint; Text matches payee, comment and merchant title with
// substring or small-edit-distance tolerance.
type SearchOptions struct {
	Period     string
	CategoryID string
	AccountID  string
	MerchantID string
	Text       string
	MinAmount  *float64
	MaxAmount  *float64
	Type       string
	Limit      int
}

// SearchHit is one matching transaction with names joined in.
type SearchHit struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Account  string  `json:"account,omitempty"`
	Category string  `json:"category,omitempty"`
	Payee    string  `json:"payee,omitempty"`
	Comment  string  `json:"comment,omitempty"`
	Hold     bool    `json:"hold,omitempty"`
}

// SearchResult is a capped transaction listing with the uncapped match
// count.
type SearchResult struct {
	Transactions  []SearchHit `json:"transactions"`
	ReturnedCount int         `json:"returned_count"`
	TotalCount    int         `json:"total_count"`
}

// Search lists transactions matching the given filters, newest first. The
// category filter covers the whole subtree. Free text matches when any of
// payee, comment or merchant title contains the query or is within a small
// edit distance of it.
func (s *Service) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
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
	accounts, err := s.accounts.ByID(ctx)
	if err != nil {
		return nil, err
	}
	instruments, err := s.instruments.ByID(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	f := repository.TransactionFilters{
		AccountID:    opts.AccountID,
		MerchantID:   opts.MerchantID,
		MinAmount:    opts.MinAmount,
		MaxAmount:    opts.MaxAmount,
		IncludeHolds: true,
	}
	if opts.Period != "" {
		p := parsePeriod(opts.Period, s.now())
		f.DateFrom, f.DateTo = p.Start, p.End
	}
	switch opts.Type {
	case "income", "expense", "transfer":
		f.Kind = opts.Type
	case "outcome":
		f.Kind = "expense"
	}
	if opts.CategoryID != "" {
		rollup := money.RollupSet(opts.CategoryID, tags)
		for id := range rollup {
			f.PrimaryTags = append(f.PrimaryTags, id)
		}
	}

	// Text matching is fuzzy, so rows are filtered here instead of SQL.
	txs, err := s.transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(opts.Text))
	var hits []SearchHit
	for _, t := range txs {
		merchantTitle := ""
		if t.Merchant != nil {
			merchantTitle = merchants[*t.Merchant].Title
		}
		if query != "" && !textMatches(query, strOrEmpty(t.Payee), strOrEmpty(t.Comment), merchantTitle) {
			continue
		}

		var kind, accountName string
		var amount float64
		var instrument int64
		switch {
		case t.Income > 0 && t.Outcome == 0:
			kind = "income"
			amount = t.Income
			instrument = t.IncomeInstrument
			accountName = accounts[strOrEmpty(t.IncomeAccount)].Title
		case t.Outcome > 0 && t.Income == 0:
			kind = "expense"
			amount = t.Outcome
			instrument = t.OutcomeInstrument
			accountName = accounts[strOrEmpty(t.OutcomeAccount)].Title
		default:
			kind = "transfer"
			amount = t.Outcome
			instrument = t.OutcomeInstrument
			accountName = accounts[strOrEmpty(t.OutcomeAccount)].Title + " -> " +
				accounts[strOrEmpty(t.IncomeAccount)].Title
		}

		category := ""
		if primary := t.PrimaryTag(); primary != "" {
			if category = tags[primary].Title; category == "" {
				category = primary
			}
		}
		payee := merchantTitle
		if payee == "" {
			payee = strOrEmpty(t.Payee)
		}

		hits = append(hits, SearchHit{
			ID:       t.ID,
			Date:     t.Date,
			Type:     kind,
			Amount:   round2(amount),
			Currency: instruments[instrument].ShortTitle,
			Account:  accountName,
			Category: category,
			Payee:    payee,
			Comment:  strOrEmpty(t.Comment),
			Hold:     t.Hold,
		})
	}

	res := &SearchResult{TotalCount: len(hits)}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	res.Transactions = hits
	res.ReturnedCount = len(hits)
	return res, nil
}

func textMatches(query string, fields ...string) bool {
	for _, field := range fields {
		if field == "" {
			continue
		}
		lower := strings.ToLower(field)
		if strings.Contains(lower, query) {
			return true
		}
		// tolerate small typos on whole-field comparison
		if len(query) > 5 && levenshtein.ComputeDistance(lower, query) <= 2 {
			return true
		}
	}
	return false
}

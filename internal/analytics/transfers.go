package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// Transfer is one both-sides-positive transaction with converted amounts.
type Transfer struct {
	Date            string  `json:"date"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	AmountOutcome   float64 `json:"amount_outcome"`
	AmountIncome    float64 `json:"amount_income"`
	OutcomeInBase   float64 `json:"outcome_in_base"`
	IncomeInBase    float64 `json:"income_in_base"`
	CurrencyOutcome string  `json:"currency_outcome"`
	CurrencyIncome  string  `json:"currency_income"`
	Type            string  `json:"type"`
	EffectiveRate   float64 `json:"effective_rate,omitempty"`
	Comment         string  `json:"comment,omitempty"`
}

// TransferTypeTotal aggregates one transfer type.
type TransferTypeTotal struct {
	Type  string  `json:"type"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// TransfersResult is the transfer view: exactly the rows the expense and
// income analytics exclude.
type TransfersResult struct {
	Period        Period              `json:"period"`
	Currency      string              `json:"currency"`
	TotalCount    int                 `json:"total_count"`
	ReturnedCount int                 `json:"returned_count"`
	TotalAmount   float64             `json:"total_amount"`
	ByType        []TransferTypeTotal `json:"by_type"`
	Transfers     []Transfer          `json:"transfers"`
	SkippedNoRate int                 `json:"skipped_no_rate,omitempty"`
}

// Transfers selects both-sides-positive transactions and types each one:
// debt when either account is a debt account, currency_exchange when the
// instruments differ, own_transfer otherwise. Exchanges carry the effective
// rate paid.
func (s *Service) Transfers(ctx context.Context, period string, topN int) (*TransfersResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	conv, err := s.newConverter(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ByID(ctx)
	if err != nil {
		return nil, err
	}
	p := parsePeriod(period, s.now())
	if topN <= 0 {
		topN = s.cfg.DefaultLimit
	}

	accountTypes := make(map[string]string, len(accounts))
	for id, a := range accounts {
		accountTypes[id] = a.Type
	}

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom:     p.Start,
		DateTo:       p.End,
		Kind:         "transfer",
		IncludeHolds: true,
	})
	if err != nil {
		return nil, err
	}

	res := &TransfersResult{Period: p, Currency: conv.base.ShortTitle}
	byType := map[string]*TransferTypeTotal{}

	for _, t := range txs {
		kind := "own_transfer"
		if money.Classify(t, accountTypes) == money.KindDebt {
			kind = "debt"
		} else if t.IncomeInstrument != t.OutcomeInstrument {
			kind = "currency_exchange"
		}

		outBase, ok := conv.toBase(t.Outcome, t.OutcomeInstrument)
		if !ok {
			continue
		}
		inBase, ok := conv.toBase(t.Income, t.IncomeInstrument)
		if !ok {
			continue
		}

		tr := Transfer{
			Date:            t.Date,
			From:            accounts[strOrEmpty(t.OutcomeAccount)].Title,
			To:              accounts[strOrEmpty(t.IncomeAccount)].Title,
			AmountOutcome:   round2(t.Outcome),
			AmountIncome:    round2(t.Income),
			OutcomeInBase:   round2(outBase),
			IncomeInBase:    round2(inBase),
			CurrencyOutcome: conv.instruments[t.OutcomeInstrument].ShortTitle,
			CurrencyIncome:  conv.instruments[t.IncomeInstrument].ShortTitle,
			Type:            kind,
			Comment:         strOrEmpty(t.Comment),
		}
		if kind == "currency_exchange" && t.Income > 0 {
			tr.EffectiveRate = math.Round(t.Outcome/t.Income*10000) / 10000
		}

		res.Transfers = append(res.Transfers, tr)
		res.TotalAmount += outBase

		tt := byType[kind]
		if tt == nil {
			tt = &TransferTypeTotal{Type: kind}
			byType[kind] = tt
		}
		tt.Count++
		tt.Total += outBase
	}

	res.TotalCount = len(res.Transfers)
	for _, tt := range byType {
		tt.Total = round2(tt.Total)
		res.ByType = append(res.ByType, *tt)
	}
	sort.Slice(res.ByType, func(i, j int) bool { return res.ByType[i].Total > res.ByType[j].Total })

	if len(res.Transfers) > topN {
		res.Transfers = res.Transfers[:topN]
	}
	res.ReturnedCount = len(res.Transfers)
	res.TotalAmount = round2(res.TotalAmount)
	res.SkippedNoRate = conv.skipped
	return res, nil
}

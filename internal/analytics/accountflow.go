package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

// FlowTransaction is one ledger entry seen from the chosen account.
type FlowTransaction struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category,omitempty"`
	Payee        string  `json:"payee,omitempty"`
	Comment      string  `json:"comment,omitempty"`
	Counterparty string  `json:"counterparty,omitempty"`
}

// FlowCategory aggregates one category within the account's flow.
type FlowCategory struct {
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// AccountFlowResult is a single account's cash flow over a period.
type AccountFlowResult struct {
	AccountID     string            `json:"account_id"`
	AccountTitle  string            `json:"account_title"`
	AccountType   string            `json:"account_type"`
	Balance       float64           `json:"balance"`
	Period        Period            `json:"period"`
	TotalIncome   float64           `json:"total_income"`
	TotalOutcome  float64           `json:"total_outcome"`
	NetChange     float64           `json:"net_change"`
	ByCategory    []FlowCategory    `json:"by_category"`
	Transactions  []FlowTransaction `json:"transactions"`
	ReturnedCount int               `json:"returned_count"`
	TotalCount    int               `json:"total_count"`
}

const flowTransactionLimit = 50

// AccountFlow reports one account's ledger: pure income, pure expenses,
// and transfers in/out, with a category breakdown over the non-transfer
// rows. Amounts stay in the account's own instrument.
func (s *Service) AccountFlow(ctx context.Context, accountID, period string) (*AccountFlowResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
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
	p := parsePeriod(period, s.now())

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom:     p.Start,
		DateTo:       p.End,
		AccountID:    accountID,
		IncludeHolds: true,
	})
	if err != nil {
		return nil, err
	}

	res := &AccountFlowResult{
		AccountID:    accountID,
		AccountTitle: account.Title,
		AccountType:  account.Type,
		Balance:      round2(account.Balance),
		Period:       p,
	}
	byCategory := map[string]*FlowCategory{}

	for _, t := range txs {
		incomeHere := t.IncomeAccount != nil && *t.IncomeAccount == accountID
		outcomeHere := t.OutcomeAccount != nil && *t.OutcomeAccount == accountID

		var kind string
		var amount float64
		var counterparty string
		switch {
		case t.Income > 0 && t.Outcome == 0 && incomeHere:
			kind = "income"
			amount = t.Income
			res.TotalIncome += amount
		case t.Outcome > 0 && t.Income == 0 && outcomeHere:
			kind = "outcome"
			amount = t.Outcome
			res.TotalOutcome += amount
		case t.Income > 0 && t.Outcome > 0 && incomeHere && !outcomeHere:
			kind = "transfer_in"
			amount = t.Income
			counterparty = accounts[strOrEmpty(t.OutcomeAccount)].Title
		case t.Income > 0 && t.Outcome > 0 && outcomeHere && !incomeHere:
			kind = "transfer_out"
			amount = t.Outcome
			counterparty = accounts[strOrEmpty(t.IncomeAccount)].Title
		default:
			continue
		}

		category := ""
		if primary := t.PrimaryTag(); primary != "" {
			category = tags[primary].Title
		}
		if kind == "income" || kind == "outcome" {
			name := category
			if name == "" {
				name = "Uncategorized"
			}
			fc := byCategory[name+"/"+kind]
			if fc == nil {
				fc = &FlowCategory{Category: name, Type: kind}
				byCategory[name+"/"+kind] = fc
			}
			fc.Total += amount
			fc.Count++
		}

		res.Transactions = append(res.Transactions, FlowTransaction{
			ID:           t.ID,
			Date:         t.Date,
			Type:         kind,
			Amount:       round2(amount),
			Category:     category,
			Payee:        displayPayee(t, merchants),
			Comment:      strOrEmpty(t.Comment),
			Counterparty: counterparty,
		})
	}

	for _, fc := range byCategory {
		fc.Total = round2(fc.Total)
		res.ByCategory = append(res.ByCategory, *fc)
	}
	sort.Slice(res.ByCategory, func(i, j int) bool { return res.ByCategory[i].Total > res.ByCategory[j].Total })

	res.TotalCount = len(res.Transactions)
	if len(res.Transactions) > flowTransactionLimit {
		res.Transactions = res.Transactions[:flowTransactionLimit]
	}
	res.ReturnedCount = len(res.Transactions)
	res.TotalIncome = round2(res.TotalIncome)
	res.TotalOutcome = round2(res.TotalOutcome)
	res.NetChange = round2(res.TotalIncome - res.TotalOutcome)
	return res, nil
}

package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/jask/zenledger/internal/database/repository"
)

// DebtEntry is one movement on a counterparty's debt position.
type DebtEntry struct {
	Date    string  `json:"date"`
	Amount  float64 `json:"amount"`
	Type    string  `json:"type"`
	Comment string  `json:"comment,omitempty"`
}

// Counterparty is one debt relation with its net position.
type Counterparty struct {
	Name         string      `json:"counterparty"`
	MerchantID   string      `json:"merchant_id,omitempty"`
	NetAmount    float64     `json:"net_amount"`
	Status       string      `json:"status"`
	LastActivity string      `json:"last_activity,omitempty"`
	Transactions []DebtEntry `json:"transactions"`
}

// DebtsResult summarizes who owes whom across debt accounts.
type DebtsResult struct {
	Currency       string         `json:"currency"`
	TotalOwedToYou float64        `json:"total_owed_to_you"`
	TotalYouOwe    float64        `json:"total_you_owe"`
	NetPosition    float64        `json:"net_position"`
	ByCounterparty []Counterparty `json:"by_counterparty"`
}

const debtHistoryLimit = 10

// Debts derives per-counterparty positions from debt-account transactions.
// Money entering a debt account means lent or repaid-to-you; money leaving
// means borrowed or repaid-by-you.
func (s *Service) Debts(ctx context.Context) (*DebtsResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	base, err := s.instruments.Base(ctx)
	if err != nil {
		return nil, err
	}
	merchants, err := s.merchants.ByID(ctx)
	if err != nil {
		return nil, err
	}
	debtAccounts, err := s.accounts.ListByType(ctx, "debt")
	if err != nil {
		return nil, err
	}

	res := &DebtsResult{Currency: base.ShortTitle}
	if len(debtAccounts) == 0 {
		res.ByCounterparty = []Counterparty{}
		return res, nil
	}

	type position struct {
		merchantID string
		balance    float64
		history    []DebtEntry
		lastDate   string
	}
	positions := map[string]*position{}

	for _, acc := range debtAccounts {
		txs, err := s.transactions.List(ctx, repository.TransactionFilters{
			AccountID:    acc.ID,
			IncludeHolds: true,
		})
		if err != nil {
			return nil, err
		}
		for _, t := range txs {
			name := "Unknown"
			var merchantID string
			if t.Merchant != nil {
				merchantID = *t.Merchant
				if title := merchants[merchantID].Title; title != "" {
					name = title
				}
			} else if t.Payee != nil && *t.Payee != "" {
				name = *t.Payee
			}
			pos := positions[name]
			if pos == nil {
				pos = &position{merchantID: merchantID}
				positions[name] = pos
			}

			var amount float64
			var kind string
			if t.IncomeAccount != nil && *t.IncomeAccount == acc.ID {
				amount = t.Income
				if t.Outcome > 0 {
					kind = "lent"
				} else {
					kind = "received"
				}
				pos.balance += amount
			} else {
				amount = t.Outcome
				if t.Income > 0 {
					kind = "borrowed"
				} else {
					kind = "returned"
				}
				pos.balance -= amount
			}
			if t.Date > pos.lastDate {
				pos.lastDate = t.Date
			}
			if len(pos.history) < debtHistoryLimit {
				pos.history = append(pos.history, DebtEntry{
					Date:    t.Date,
					Amount:  round2(amount),
					Type:    kind,
					Comment: strOrEmpty(t.Comment),
				})
			}
		}
	}

	for name, pos := range positions {
		status := "settled"
		if pos.balance > 0 {
			status = "they_owe_you"
			res.TotalOwedToYou += pos.balance
		} else if pos.balance < 0 {
			status = "you_owe_them"
			res.TotalYouOwe += -pos.balance
		}
		res.ByCounterparty = append(res.ByCounterparty, Counterparty{
			Name:         name,
			MerchantID:   pos.merchantID,
			NetAmount:    round2(pos.balance),
			Status:       status,
			LastActivity: pos.lastDate,
			Transactions: pos.history,
		})
	}
	sort.Slice(res.ByCounterparty, func(i, j int) bool {
		return math.Abs(res.ByCounterparty[i].NetAmount) > math.Abs(res.ByCounterparty[j].NetAmount)
	})

	res.TotalOwedToYou = round2(res.TotalOwedToYou)
	res.TotalYouOwe = round2(res.TotalYouOwe)
	res.NetPosition = round2(res.TotalOwedToYou - res.TotalYouOwe)
	return res, nil
}

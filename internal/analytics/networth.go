package analytics

import "context"

// AccountBalance is one account's contribution to a balance grouping.
type AccountBalance struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
	Converted float64 `json:"converted"`
}

// BalanceGroup is a set of accounts with their converted total.
type BalanceGroup struct {
	Total    float64          `json:"total"`
	Accounts []AccountBalance `json:"accounts"`
}

// NetWorthResult groups converted balances by account role.
type NetWorthResult struct {
	NetWorth      float64          `json:"net_worth"`
	Currency      string           `json:"currency"`
	Current       BalanceGroup     `json:"current"`
	Savings       BalanceGroup     `json:"savings"`
	Loans         BalanceGroup     `json:"loans"`
	Debts         BalanceGroup     `json:"debts"`
	OutOfBalance  []AccountBalance `json:"out_of_balance"`
	SkippedNoRate int              `json:"skipped_no_rate,omitempty"`
}

// NetWorth sums converted balances of in-balance accounts, grouped into
// current (cash, card, checking, emoney), savings (deposit or savings
// flag), loans and debts. Out-of-balance accounts are listed but never
// summed. Accounts without a usable rate are skipped and counted.
func (s *Service) NetWorth(ctx context.Context) (*NetWorthResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	conv, err := s.newConverter(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	res := &NetWorthResult{Currency: conv.base.ShortTitle}
	for _, a := range accounts {
		converted, ok := conv.toBase(a.Balance, a.Instrument)
		if !ok {
			continue
		}
		info := AccountBalance{
			ID:        a.ID,
			Title:     a.Title,
			Type:      a.Type,
			Balance:   a.Balance,
			Currency:  conv.instruments[a.Instrument].ShortTitle,
			Converted: round2(converted),
		}
		if !a.InBalance {
			res.OutOfBalance = append(res.OutOfBalance, info)
			continue
		}
		switch {
		case a.Type == "debt":
			res.Debts.Accounts = append(res.Debts.Accounts, info)
			res.Debts.Total += converted
		case a.Type == "loan":
			res.Loans.Accounts = append(res.Loans.Accounts, info)
			res.Loans.Total += converted
		case a.Type == "deposit" || a.Savings:
			res.Savings.Accounts = append(res.Savings.Accounts, info)
			res.Savings.Total += converted
		default:
			res.Current.Accounts = append(res.Current.Accounts, info)
			res.Current.Total += converted
		}
	}
	res.NetWorth = round2(res.Current.Total + res.Savings.Total + res.Loans.Total + res.Debts.Total)
	res.Current.Total = round2(res.Current.Total)
	res.Savings.Total = round2(res.Savings.Total)
	res.Loans.Total = round2(res.Loans.Total)
	res.Debts.Total = round2(res.Debts.Total)
	res.SkippedNoRate = conv.skipped
	return res, nil
}

package analytics

import "context"

// TargetCheck reports whether a target amount is affordable at each
// liquidity tier.
type TargetCheck struct {
	Target                float64 `json:"target"`
	AffordableFromLiquid  bool    `json:"affordable_from_liquid"`
	AffordableWithCredit  bool    `json:"affordable_with_credit"`
	AffordableWithSavings bool    `json:"affordable_with_savings"`
}

// LiquidityResult splits spendable funds into own money, with-credit, and
// accessible savings.
type LiquidityResult struct {
	LiquidOwn         float64          `json:"liquid_own"`
	LiquidWithCredit  float64          `json:"liquid_with_credit"`
	SavingsAccessible float64          `json:"savings_accessible"`
	TotalAvailable    float64          `json:"total_available"`
	Currency          string           `json:"currency"`
	LiquidAccounts    []AccountBalance `json:"liquid_accounts"`
	CreditAccounts    []AccountBalance `json:"credit_accounts"`
	SavingsAccounts   []AccountBalance `json:"savings_accounts"`
	TargetCheck       *TargetCheck     `json:"target_check,omitempty"`
	SkippedNoRate     int              `json:"skipped_no_rate,omitempty"`
}

// Liquidity measures immediately spendable funds. Cash, checking and emoney
// count in full; credit cards contribute positive own funds plus available
// credit; deposits and savings accounts form the less liquid tier.
// targetAmount, when positive, adds an affordability check in base units.
func (s *Service) Liquidity(ctx context.Context, targetAmount float64) (*LiquidityResult, error) {
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

	res := &LiquidityResult{Currency: conv.base.ShortTitle}
	for _, a := range accounts {
		if !a.InBalance {
			continue
		}
		balance, ok := conv.toBase(a.Balance, a.Instrument)
		if !ok {
			continue
		}
		credit, ok := conv.toBase(a.CreditLimit, a.Instrument)
		if !ok {
			continue
		}
		info := AccountBalance{
			ID:        a.ID,
			Title:     a.Title,
			Type:      a.Type,
			Balance:   a.Balance,
			Currency:  conv.instruments[a.Instrument].ShortTitle,
			Converted: round2(balance),
		}
		switch {
		case a.Type == "ccard":
			own := balance
			if own < 0 {
				own = 0
			}
			available := balance
			if credit > 0 {
				available += credit
			}
			res.LiquidOwn += own
			res.LiquidWithCredit += available
			if credit > 0 {
				res.CreditAccounts = append(res.CreditAccounts, info)
			} else {
				res.LiquidAccounts = append(res.LiquidAccounts, info)
			}
		case a.Type == "cash" || a.Type == "checking" || a.Type == "emoney":
			res.LiquidOwn += balance
			res.LiquidWithCredit += balance
			res.LiquidAccounts = append(res.LiquidAccounts, info)
		case a.Type == "deposit" || a.Savings:
			res.SavingsAccessible += balance
			res.SavingsAccounts = append(res.SavingsAccounts, info)
		}
	}
	res.TotalAvailable = res.LiquidOwn + res.SavingsAccessible

	if targetAmount > 0 {
		res.TargetCheck = &TargetCheck{
			Target:                targetAmount,
			AffordableFromLiquid:  res.LiquidOwn >= targetAmount,
			AffordableWithCredit:  res.LiquidWithCredit >= targetAmount,
			AffordableWithSavings: res.TotalAvailable >= targetAmount,
		}
	}
	res.LiquidOwn = round2(res.LiquidOwn)
	res.LiquidWithCredit = round2(res.LiquidWithCredit)
	res.SavingsAccessible = round2(res.SavingsAccessible)
	res.TotalAvailable = round2(res.TotalAvailable)
	res.SkippedNoRate = conv.skipped
	return res, nil
}

package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jask/zenledger/internal/database/repository"
)

// RecurringPayment is one detected or declared recurring charge.
type RecurringPayment struct {
	Name         string  `json:"name"`
	MerchantID   string  `json:"merchant_id,omitempty"`
	AvgAmount    float64 `json:"avg_amount"`
	Frequency    string  `json:"frequency"`
	IntervalDays int     `json:"interval_days,omitempty"`
	Category     string  `json:"category,omitempty"`
	Account      string  `json:"account,omitempty"`
	LastPayment  string  `json:"last_payment,omitempty"`
	NextExpected string  `json:"next_expected,omitempty"`
	Confidence   float64 `json:"confidence"`
	Source       string  `json:"source"`
	Occurrences  int     `json:"occurrences,omitempty"`
	YearlyCost   float64 `json:"yearly_cost,omitempty"`
}

// RecurringResult lists recurring payments with cost estimates.
type RecurringResult struct {
	TotalMonthlyEstimate float64            `json:"total_monthly_estimate"`
	TotalYearlyEstimate  float64            `json:"total_yearly_estimate"`
	Currency             string             `json:"currency"`
	Recurring            []RecurringPayment `json:"recurring"`
	TotalFound           int                `json:"total_found"`
	SkippedNoRate        int                `json:"skipped_no_rate,omitempty"`
}

// cadence bands in average days between occurrences.
var cadences = []struct {
	name     string
	min, max float64
	interval int
}{
	{"weekly", 6, 8, 7},
	{"biweekly", 12, 16, 14},
	{"monthly", 25, 35, 30},
	{"quarterly", 85, 95, 90},
	{"yearly", 360, 370, 365},
}

// Recurring detects repeating charges by grouping expenses on
// (counterparty, primary tag, account, amount bucket) and testing the
// inter-occurrence interval against known cadences. Declared reminders with
// an interval join the result at full confidence.
func (s *Service) Recurring(ctx context.Context) (*RecurringResult, error) {
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
	accounts, err := s.accounts.ByID(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	lookbackDays := s.cfg.RecurringLookbackMonths * 30
	from := today.AddDate(0, 0, -lookbackDays).Format(dateLayout)

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom: from,
		Kind:     "expense",
	})
	if err != nil {
		return nil, err
	}

	type occurrence struct {
		date   string
		amount float64
	}
	type group struct {
		payee      string
		merchantID string
		tagID      string
		accountID  string
		occ        []occurrence
	}
	type groupKey struct {
		payee, tag, account string
		bucket              int
	}
	groups := map[groupKey]*group{}

	for _, t := range txs {
		amount, ok := conv.toBase(t.Outcome, t.OutcomeInstrument)
		if !ok {
			continue
		}
		payee := "unknown"
		var merchantID string
		if t.Merchant != nil {
			merchantID = *t.Merchant
			if title := merchants[merchantID].Title; title != "" {
				payee = title
			}
		} else if t.Payee != nil && *t.Payee != "" {
			payee = *t.Payee
		}
		// bucket to the nearest 100 base units to absorb minor variation
		bucket := int(math.Round(amount/100)) * 100
		key := groupKey{payee: payee, tag: t.PrimaryTag(), account: strOrEmpty(t.OutcomeAccount), bucket: bucket}
		g := groups[key]
		if g == nil {
			g = &group{payee: payee, merchantID: merchantID, tagID: key.tag, accountID: key.account}
			groups[key] = g
		}
		g.occ = append(g.occ, occurrence{date: t.Date, amount: amount})
	}

	var recurring []RecurringPayment
	for _, g := range groups {
		if len(g.occ) < 2 {
			continue
		}
		sort.Slice(g.occ, func(i, j int) bool { return g.occ[i].date < g.occ[j].date })

		var intervalSum float64
		valid := true
		for i := 1; i < len(g.occ); i++ {
			d1, err1 := time.Parse(dateLayout, g.occ[i-1].date)
			d2, err2 := time.Parse(dateLayout, g.occ[i].date)
			if err1 != nil || err2 != nil {
				valid = false
				break
			}
			intervalSum += d2.Sub(d1).Hours() / 24
		}
		if !valid {
			continue
		}
		avgInterval := intervalSum / float64(len(g.occ)-1)

		frequency := ""
		intervalDays := 0
		for _, c := range cadences {
			if avgInterval >= c.min && avgInterval <= c.max {
				frequency = c.name
				intervalDays = c.interval
				break
			}
		}
		if frequency == "" {
			continue
		}

		var sum, minA, maxA float64
		minA = math.MaxFloat64
		for _, o := range g.occ {
			sum += o.amount
			minA = math.Min(minA, o.amount)
			maxA = math.Max(maxA, o.amount)
		}
		avgAmount := sum / float64(len(g.occ))
		if avgAmount > 0 && (maxA-minA)/avgAmount*100 > s.cfg.RecurringTolerancePct {
			continue
		}

		expected := float64(lookbackDays) / float64(intervalDays)
		confidence := math.Min(float64(len(g.occ))/math.Max(expected, 1), 1.0)
		if confidence < 0.5 {
			continue
		}

		last := g.occ[len(g.occ)-1].date
		lastDate, _ := time.Parse(dateLayout, last)
		next := lastDate.AddDate(0, 0, intervalDays)
		nextStr := ""
		if !next.After(today.AddDate(0, 0, 60)) {
			nextStr = next.Format(dateLayout)
		}

		recurring = append(recurring, RecurringPayment{
			Name:         g.payee,
			MerchantID:   g.merchantID,
			AvgAmount:    round2(avgAmount),
			Frequency:    frequency,
			IntervalDays: intervalDays,
			Category:     tags[g.tagID].Title,
			Account:      accounts[g.accountID].Title,
			LastPayment:  last,
			NextExpected: nextStr,
			Confidence:   round2(confidence),
			Source:       "detected",
			Occurrences:  len(g.occ),
			YearlyCost:   round2(avgAmount * 365 / float64(intervalDays)),
		})
	}

	declared, err := s.reminders.ListRecurring(ctx)
	if err != nil {
		return nil, err
	}
	freqNames := map[string]string{"day": "daily", "week": "weekly", "month": "monthly", "year": "yearly"}
	for _, r := range declared {
		frequency := strOrEmpty(r.Interval)
		if mapped, ok := freqNames[frequency]; ok {
			frequency = mapped
		}
		name := strOrEmpty(r.Payee)
		if name == "" {
			name = "Unknown"
		}
		tagID := ""
		if len(r.Tags) > 0 {
			tagID = r.Tags[0]
		}
		recurring = append(recurring, RecurringPayment{
			Name:       name,
			AvgAmount:  round2(r.Outcome),
			Frequency:  frequency,
			Category:   tags[tagID].Title,
			Account:    accounts[strOrEmpty(r.OutcomeAccount)].Title,
			Confidence: 1.0,
			Source:     "reminder",
		})
	}

	sort.Slice(recurring, func(i, j int) bool { return recurring[i].YearlyCost > recurring[j].YearlyCost })

	var yearly float64
	for _, r := range recurring {
		yearly += r.YearlyCost
	}
	return &RecurringResult{
		TotalMonthlyEstimate: round2(yearly / 12),
		TotalYearlyEstimate:  round2(yearly),
		Currency:             conv.base.ShortTitle,
		Recurring:            recurring,
		TotalFound:           len(recurring),
		SkippedNoRate:        conv.skipped,
	}, nil
}

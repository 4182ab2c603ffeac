package analytics

import (
	"context"
	"sort"
	"time"
)

// UpcomingPayment is one planned reminder occurrence within the horizon.
type UpcomingPayment struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Account    string  `json:"account,omitempty"`
	Category   string  `json:"category,omitempty"`
	Payee      string  `json:"payee"`
	Comment    string  `json:"comment,omitempty"`
	ReminderID string  `json:"reminder_id"`
}

// WeekLoad sums planned outcome for one calendar week.
type WeekLoad struct {
	WeekStart string  `json:"week_start"`
	Amount    float64 `json:"amount"`
}

// UpcomingResult lists planned payments within a horizon.
type UpcomingResult struct {
	Upcoming             []UpcomingPayment `json:"upcoming"`
	TotalUpcomingOutcome float64           `json:"total_upcoming_outcome"`
	TotalUpcomingIncome  float64           `json:"total_upcoming_income"`
	Currency             string            `json:"currency"`
	Period               Period            `json:"period"`
	WeeklyLoad           []WeekLoad        `json:"weekly_load"`
	SkippedNoRate        int               `json:"skipped_no_rate,omitempty"`
}

// UpcomingPayments returns planned reminder markers inside the next
// daysAhead days with a per-week outcome load. Zero-amount markers are
// skipped.
func (s *Service) UpcomingPayments(ctx context.Context, daysAhead int) (*UpcomingResult, error) {
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
	if daysAhead <= 0 {
		daysAhead = 30
	}

	today := s.now()
	p := Period{
		Start: today.Format(dateLayout),
		End:   today.AddDate(0, 0, daysAhead).Format(dateLayout),
	}
	markers, err := s.markers.Planned(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	res := &UpcomingResult{Currency: conv.base.ShortTitle, Period: p}
	weeks := map[string]float64{}

	for _, m := range markers {
		var kind, accountID string
		var amount float64
		switch {
		case m.Outcome > 0:
			kind = "outcome"
			amount = m.Outcome
			accountID = strOrEmpty(m.OutcomeAccount)
		case m.Income > 0:
			kind = "income"
			amount = m.Income
			accountID = strOrEmpty(m.IncomeAccount)
		default:
			continue
		}
		account := accounts[accountID]
		converted, ok := conv.toBase(amount, account.Instrument)
		if !ok {
			continue
		}
		if kind == "outcome" {
			res.TotalUpcomingOutcome += converted
		} else {
			res.TotalUpcomingIncome += converted
		}

		category := ""
		if len(m.Tags) > 0 {
			category = tags[m.Tags[0]].Title
		}
		payee := "Unknown"
		if m.Merchant != nil {
			if title := merchants[*m.Merchant].Title; title != "" {
				payee = title
			}
		} else if m.Payee != nil && *m.Payee != "" {
			payee = *m.Payee
		}

		res.Upcoming = append(res.Upcoming, UpcomingPayment{
			ID:         m.ID,
			Date:       m.Date,
			Type:       kind,
			Amount:     round2(converted),
			Currency:   conv.base.ShortTitle,
			Account:    account.Title,
			Category:   category,
			Payee:      payee,
			Comment:    strOrEmpty(m.Comment),
			ReminderID: m.Reminder,
		})

		if kind == "outcome" {
			if d, err := time.Parse(dateLayout, m.Date); err == nil {
				offset := (int(d.Weekday()) + 6) % 7 // Monday start
				weekStart := d.AddDate(0, 0, -offset).Format(dateLayout)
				weeks[weekStart] += converted
			}
		}
	}

	for start, amount := range weeks {
		res.WeeklyLoad = append(res.WeeklyLoad, WeekLoad{WeekStart: start, Amount: round2(amount)})
	}
	sort.Slice(res.WeeklyLoad, func(i, j int) bool { return res.WeeklyLoad[i].WeekStart < res.WeeklyLoad[j].WeekStart })

	res.TotalUpcomingOutcome = round2(res.TotalUpcomingOutcome)
	res.TotalUpcomingIncome = round2(res.TotalUpcomingIncome)
	res.SkippedNoRate = conv.skipped
	return res, nil
}

package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// MonthValue is one month's metric value.
type MonthValue struct {
	Month   string  `json:"month"`
	Value   float64 `json:"value"`
	Partial bool    `json:"partial,omitempty"`
}

// MonthAnomaly marks a month deviating more than two standard deviations
// from the window mean.
type MonthAnomaly struct {
	Month     string  `json:"month"`
	Value     float64 `json:"value"`
	Deviation string  `json:"deviation"`
}

// TrendSummary carries window statistics and the regression direction.
type TrendSummary struct {
	Average           float64        `json:"average"`
	MinMonth          string         `json:"min_month"`
	MinValue          float64        `json:"min_value"`
	MaxMonth          string         `json:"max_month"`
	MaxValue          float64        `json:"max_value"`
	TrendDirection    string         `json:"trend_direction"`
	PctChangePerMonth float64        `json:"trend_pct_change_per_month"`
	Anomalies         []MonthAnomaly `json:"anomalies,omitempty"`
}

// TrendsResult is the monthly series for one metric.
type TrendsResult struct {
	Metric        string        `json:"metric"`
	Category      string        `json:"category,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	Data          []MonthValue  `json:"data"`
	Summary       *TrendSummary `json:"summary,omitempty"`
	SkippedNoRate int           `json:"skipped_no_rate,omitempty"`
}

// Trends buckets the chosen metric (outcome, income, savings_rate,
// net_cashflow) by calendar month over the last n months. The current
// partial month is reported but excluded from statistics. The direction
// comes from a least-squares slope over the complete months.
func (s *Service) Trends(ctx context.Context, months int, categoryID, metric string) (*TrendsResult, error) {
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
	if months <= 0 {
		months = 6
	}
	switch metric {
	case "outcome", "income", "savings_rate", "net_cashflow":
	default:
		metric = "outcome"
	}

	var rollup map[string]bool
	if categoryID != "" {
		rollup = money.RollupSet(categoryID, tags)
	}

	today := s.now()
	res := &TrendsResult{Metric: metric}
	if categoryID != "" {
		res.Category = tags[categoryID].Title
	}
	if metric != "savings_rate" {
		res.Currency = conv.base.ShortTitle
	}

	var values []float64
	var completeMonths []MonthValue
	for i := months - 1; i >= 0; i-- {
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		start, end := monthBounds(monthStart.Year(), monthStart.Month())
		partial := monthStart.Year() == today.Year() && monthStart.Month() == today.Month()

		outcome, err := s.monthTotal(ctx, conv, rollup, start, end, "expense")
		if err != nil {
			return nil, err
		}
		var income float64
		if metric != "outcome" {
			income, err = s.monthTotal(ctx, conv, rollup, start, end, "income")
			if err != nil {
				return nil, err
			}
		}

		var value float64
		switch metric {
		case "income":
			value = income
		case "savings_rate":
			if income > 0 {
				value = (income - outcome) / income * 100
			}
		case "net_cashflow":
			value = income - outcome
		default:
			value = outcome
		}

		mv := MonthValue{Month: start.Format("2006-01"), Value: round2(value), Partial: partial}
		res.Data = append(res.Data, mv)
		if !partial {
			values = append(values, value)
			completeMonths = append(completeMonths, mv)
		}
	}

	if len(values) > 0 {
		res.Summary = summarizeTrend(values, completeMonths)
	}
	res.SkippedNoRate = conv.skipped
	return res, nil
}

func (s *Service) monthTotal(ctx context.Context, conv *converter, rollup map[string]bool,
	start, end time.Time, kind string) (float64, error) {

	txs, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom: start.Format(dateLayout),
		DateTo:   end.Format(dateLayout),
		Kind:     kind,
	})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, t := range txs {
		if rollup != nil && !rollup[t.PrimaryTag()] {
			continue
		}
		var amount float64
		var ok bool
		if kind == "income" {
			amount, ok = conv.toBase(t.Income, t.IncomeInstrument)
		} else {
			amount, ok = conv.toBase(t.Outcome, t.OutcomeInstrument)
		}
		if !ok {
			continue
		}
		total += amount
	}
	return total, nil
}

func summarizeTrend(values []float64, months []MonthValue) *TrendSummary {
	n := len(values)
	var sum float64
	minV, maxV := values[0], values[0]
	minM, maxM := months[0].Month, months[0].Month
	for i, v := range values {
		sum += v
		if v < minV {
			minV, minM = v, months[i].Month
		}
		if v > maxV {
			maxV, maxM = v, months[i].Month
		}
	}
	mean := sum / float64(n)

	summary := &TrendSummary{
		Average:        round2(mean),
		MinMonth:       minM,
		MinValue:       round2(minV),
		MaxMonth:       maxM,
		MaxValue:       round2(maxV),
		TrendDirection: "stable",
	}

	if n >= 2 {
		xMean := float64(n-1) / 2
		var num, den float64
		for i, v := range values {
			num += (float64(i) - xMean) * (v - mean)
			den += (float64(i) - xMean) * (float64(i) - xMean)
		}
		if den != 0 && mean != 0 {
			slope := num / den
			pct := slope / mean * 100
			summary.PctChangePerMonth = round2(pct)
			switch {
			case math.Abs(pct) < 2:
				summary.TrendDirection = "stable"
			case pct > 0:
				summary.TrendDirection = "rising"
			default:
				summary.TrendDirection = "falling"
			}
		}
	}

	if n >= 3 {
		var variance float64
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		stddev := math.Sqrt(variance / float64(n))
		for i, v := range values {
			if math.Abs(v-mean) > 2*stddev && stddev > 0 {
				deviation := 0.0
				if mean != 0 {
					deviation = (v - mean) / mean * 100
				}
				summary.Anomalies = append(summary.Anomalies, MonthAnomaly{
					Month:     months[i].Month,
					Value:     round2(v),
					Deviation: fmt.Sprintf("%+.1f%%", deviation),
				})
			}
		}
	}
	return summary
}

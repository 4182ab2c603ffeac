package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// BudgetCategory compares one category's plan against its actuals.
type BudgetCategory struct {
	TagID          string  `json:"tag_id,omitempty"`
	Name           string  `json:"name"`
	Planned        float64 `json:"planned"`
	Actual         float64 `json:"actual"`
	Remaining      float64 `json:"remaining"`
	PctUsed        float64 `json:"pct_used"`
	DailyRemaining float64 `json:"daily_remaining"`
	Status         string  `json:"status"`
	Pace           string  `json:"pace"`
	Insight        string  `json:"insight,omitempty"`
}

// BudgetHealthResult reports plan-vs-actual for one month.
type BudgetHealthResult struct {
	Month         string           `json:"month"`
	DaysElapsed   int              `json:"days_elapsed"`
	DaysTotal     int              `json:"days_total"`
	Currency      string           `json:"currency"`
	Categories    []BudgetCategory `json:"categories"`
	Overall       *BudgetCategory  `json:"overall,omitempty"`
	SkippedNoRate int              `json:"skipped_no_rate,omitempty"`
}

// BudgetHealth compares planned vs actual spending per budgeted category.
// Unlocked budgets absorb planned reminder markers into the plan. Pace
// compares the month's elapsed fraction with the spend fraction; status
// splits at 80% and 100% of plan. month is 'YYYY-MM', empty means current.
func (s *Service) BudgetHealth(ctx context.Context, month string) (*BudgetHealthResult, error) {
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

	today := s.now()
	year, mon := today.Year(), today.Month()
	if month != "" {
		var y, m int
		if _, err := fmt.Sscanf(month, "%d-%d", &y, &m); err == nil && m >= 1 && m <= 12 {
			year, mon = y, time.Month(m)
		}
	}
	start, end := monthBounds(year, mon)
	daysTotal := end.Day()
	daysElapsed := 1
	if year == today.Year() && mon == today.Month() {
		daysElapsed = today.Day()
	}
	daysRemaining := daysTotal - daysElapsed
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	res := &BudgetHealthResult{
		Month:       start.Format("2006-01"),
		DaysElapsed: daysElapsed,
		DaysTotal:   daysTotal,
		Currency:    conv.base.ShortTitle,
	}

	budgets, err := s.budgets.ForMonth(ctx, start.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return res, nil
	}

	for _, b := range budgets {
		tagID := strOrEmpty(b.Tag)
		isTotal := tagID == repository.TotalBudgetTag

		name := "Uncategorized"
		if isTotal {
			name = "Monthly total"
		} else if tagID != "" {
			if title := tags[tagID].Title; title != "" {
				name = title
			}
		}

		planned := b.Outcome
		if !b.OutcomeLock {
			extra, err := s.plannedMarkerSum(ctx, start.Format(dateLayout), end.Format(dateLayout), tagID)
			if err != nil {
				return nil, err
			}
			planned += extra
		}

		actual, err := s.budgetActual(ctx, conv, tags, start, end, tagID, isTotal)
		if err != nil {
			return nil, err
		}

		if !isTotal && planned == 0 && actual == 0 {
			continue
		}

		remaining := planned - actual
		var pctUsed float64
		if planned > 0 {
			pctUsed = actual / planned * 100
		}
		var dailyRemaining float64
		if daysRemaining > 0 {
			dailyRemaining = remaining / float64(daysRemaining)
		}

		status := "on_track"
		switch {
		case pctUsed >= 100:
			status = "overspent"
		case pctUsed >= 80:
			status = "warning"
		}

		monthProgress := float64(daysElapsed) / float64(daysTotal)
		spendProgress := pctUsed / 100
		pace := "on_pace"
		switch {
		case spendProgress > monthProgress*1.1:
			pace = "ahead_of_pace"
		case spendProgress < monthProgress*0.9:
			pace = "behind_pace"
		}

		cat := BudgetCategory{
			TagID:          tagID,
			Name:           name,
			Planned:        round2(planned),
			Actual:         round2(actual),
			Remaining:      round2(remaining),
			PctUsed:        round2(pctUsed),
			DailyRemaining: round2(dailyRemaining),
			Status:         status,
			Pace:           pace,
		}
		if status == "overspent" {
			cat.Insight = fmt.Sprintf("Overspent by %.2f %s", actual-planned, conv.base.ShortTitle)
		} else if status == "warning" && pace == "ahead_of_pace" && actual > 0 && daysRemaining > 0 {
			daysUntilDepleted := int(remaining / (actual / float64(daysElapsed)))
			if daysUntilDepleted < daysRemaining {
				cat.Insight = fmt.Sprintf("At current pace, budget will be exhausted in %d days", daysUntilDepleted)
			}
		}

		if isTotal {
			cat.TagID = ""
			cat.Name = ""
			res.Overall = &cat
		} else {
			res.Categories = append(res.Categories, cat)
		}
	}

	sort.Slice(res.Categories, func(i, j int) bool {
		return res.Categories[i].PctUsed > res.Categories[j].PctUsed
	})
	res.SkippedNoRate = conv.skipped
	return res, nil
}

// budgetActual sums expenses for a budget line. The monthly-total line sums
// everything; a tag line sums the tag and its descendants; the empty tag
// sums uncategorized spending.
func (s *Service) budgetActual(ctx context.Context, conv *converter, tags map[string]repository.Tag,
	start, end time.Time, tagID string, isTotal bool) (float64, error) {

	f := repository.TransactionFilters{
		DateFrom: start.Format(dateLayout),
		DateTo:   end.Format(dateLayout),
		Kind:     "expense",
	}
	var rollup map[string]bool
	switch {
	case isTotal:
	case tagID == "":
		f.Uncategorized = true
	default:
		rollup = money.RollupSet(tagID, tags)
	}
	txs, err := s.transactions.List(ctx, f)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, t := range txs {
		if rollup != nil && !rollup[t.PrimaryTag()] {
			continue
		}
		amount, ok := conv.toBase(t.Outcome, t.OutcomeInstrument)
		if !ok {
			continue
		}
		total += amount
	}
	return total, nil
}

func (s *Service) plannedMarkerSum(ctx context.Context, from, to, tagID string) (float64, error) {
	markers, err := s.markers.Planned(ctx, from, to)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, m := range markers {
		primary := ""
		if len(m.Tags) > 0 {
			primary = m.Tags[0]
		}
		if primary != tagID {
			continue
		}
		total += m.Outcome
	}
	return total, nil
}

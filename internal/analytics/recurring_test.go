package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/testdata"
)

func TestRecurringDetectsMonthlyCharge(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	fun := l.AddTag("Entertainment", "")

	l.AddExpense("2026-06-01", 9.99, testdata.BaseInstrument, wallet, fun, "Streamly")
	l.AddExpense("2026-07-01", 9.99, testdata.BaseInstrument, wallet, fun, "Streamly")
	l.AddExpense("2026-08-01", 9.99, testdata.BaseInstrument, wallet, fun, "Streamly")

	// two visits ten days apart match no cadence
	l.AddExpense("2026-07-10", 40, testdata.BaseInstrument, wallet, fun, "Cinema")
	l.AddExpense("2026-07-20", 40, testdata.BaseInstrument, wallet, fun, "Cinema")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Recurring(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalFound)

	r := res.Recurring[0]
	require.Equal(t, "Streamly", r.Name)
	require.Equal(t, "monthly", r.Frequency)
	require.Equal(t, 30, r.IntervalDays)
	require.Equal(t, 9.99, r.AvgAmount)
	require.Equal(t, "Entertainment", r.Category)
	require.Equal(t, "2026-08-01", r.LastPayment)
	require.Equal(t, "2026-08-31", r.NextExpected)
	require.Equal(t, 1.0, r.Confidence)
	require.Equal(t, "detected", r.Source)
	require.Equal(t, 3, r.Occurrences)
	require.Equal(t, 121.55, r.YearlyCost)
	require.Equal(t, 121.55, res.TotalYearlyEstimate)
}

func TestRecurringRejectsVariableAmounts(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)

	// monthly cadence but the amount swings past the tolerance
	l.AddExpense("2026-06-01", 40, testdata.BaseInstrument, wallet, "", "Grocer")
	l.AddExpense("2026-07-01", 55, testdata.BaseInstrument, wallet, "", "Grocer")
	l.AddExpense("2026-08-01", 70, testdata.BaseInstrument, wallet, "", "Grocer")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Recurring(ctx)
	require.NoError(t, err)
	require.Zero(t, res.TotalFound)
}

func TestRecurringIncludesDeclaredReminders(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Gym card", "ccard", testdata.BaseInstrument, 0)
	sport := l.AddTag("Sport", "")
	interval := "month"
	payee := "Iron Temple"
	l.Batch.Reminders = append(l.Batch.Reminders, repository.Reminder{
		ID:             "rem-1",
		Interval:       &interval,
		Step:           1,
		StartDate:      "2026-01-01",
		Outcome:        35,
		OutcomeAccount: &wallet,
		Tags:           []string{sport},
		Payee:          &payee,
		Changed:        1,
	})
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Recurring(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalFound)

	r := res.Recurring[0]
	require.Equal(t, "Iron Temple", r.Name)
	require.Equal(t, "monthly", r.Frequency)
	require.Equal(t, 35.0, r.AvgAmount)
	require.Equal(t, "Sport", r.Category)
	require.Equal(t, "Gym card", r.Account)
	require.Equal(t, 1.0, r.Confidence)
	require.Equal(t, "reminder", r.Source)
}

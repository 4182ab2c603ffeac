package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/testdata"
)

func TestTrendsOutcome(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)

	l.AddExpense("2026-05-10", 100, testdata.BaseInstrument, wallet, "", "")
	l.AddExpense("2026-06-10", 110, testdata.BaseInstrument, wallet, "", "")
	l.AddExpense("2026-07-10", 120, testdata.BaseInstrument, wallet, "", "")
	// the running month is reported but kept out of the statistics
	l.AddExpense("2026-08-10", 5000, testdata.BaseInstrument, wallet, "", "")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Trends(ctx, 4, "", "outcome")
	require.NoError(t, err)
	require.Equal(t, "outcome", res.Metric)
	require.Len(t, res.Data, 4)
	require.Equal(t, MonthValue{Month: "2026-05", Value: 100}, res.Data[0])
	require.True(t, res.Data[3].Partial)
	require.Equal(t, 5000.0, res.Data[3].Value)

	require.NotNil(t, res.Summary)
	require.Equal(t, 110.0, res.Summary.Average)
	require.Equal(t, "2026-05", res.Summary.MinMonth)
	require.Equal(t, "2026-07", res.Summary.MaxMonth)
	require.Equal(t, "rising", res.Summary.TrendDirection)
	require.InDelta(t, 9.09, res.Summary.PctChangePerMonth, 0.01)
	require.Empty(t, res.Summary.Anomalies)
}

func TestTrendsSavingsRate(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)

	l.AddIncome("2026-06-01", 1000, testdata.BaseInstrument, wallet, "", "Employer")
	l.AddExpense("2026-06-15", 600, testdata.BaseInstrument, wallet, "", "")
	l.AddIncome("2026-07-01", 1000, testdata.BaseInstrument, wallet, "", "Employer")
	l.AddExpense("2026-07-15", 800, testdata.BaseInstrument, wallet, "", "")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Trends(ctx, 3, "", "savings_rate")
	require.NoError(t, err)
	require.Empty(t, res.Currency)
	require.Equal(t, 40.0, res.Data[0].Value)
	require.Equal(t, 20.0, res.Data[1].Value)

	net, err := svc.Trends(ctx, 3, "", "net_cashflow")
	require.NoError(t, err)
	require.Equal(t, 400.0, net.Data[0].Value)
	require.Equal(t, 200.0, net.Data[1].Value)
}

func TestTrendsMonthAnomaly(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)

	months := []string{"2026-01", "2026-02", "2026-03", "2026-04", "2026-05", "2026-06"}
	for _, m := range months {
		l.AddExpense(m+"-10", 100, testdata.BaseInstrument, wallet, "", "")
	}
	l.AddExpense("2026-07-10", 1500, testdata.BaseInstrument, wallet, "", "")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Trends(ctx, 8, "", "outcome")
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	require.Len(t, res.Summary.Anomalies, 1)
	require.Equal(t, "2026-07", res.Summary.Anomalies[0].Month)
	require.Equal(t, 1500.0, res.Summary.Anomalies[0].Value)
}

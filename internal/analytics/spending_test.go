package analytics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/testdata"
)

func TestSpendingHierarchyRollup(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	parent := l.AddTag("Food", "")
	c1 := l.AddTag("Groceries", parent)
	c2 := l.AddTag("Restaurants", parent)
	c3 := l.AddTag("Delivery", parent)
	other := l.AddTag("Transport", "")

	l.AddExpense("2026-08-02", 20, testdata.BaseInstrument, wallet, parent, "")
	l.AddExpense("2026-08-03", 30, testdata.BaseInstrument, wallet, parent, "")
	l.AddExpense("2026-08-04", 10, testdata.BaseInstrument, wallet, c1, "")
	l.AddExpense("2026-08-05", 10, testdata.BaseInstrument, wallet, c1, "")
	l.AddExpense("2026-08-06", 5, testdata.BaseInstrument, wallet, c2, "")
	l.AddExpense("2026-08-07", 5, testdata.BaseInstrument, wallet, c2, "")
	l.AddExpense("2026-08-08", 15, testdata.BaseInstrument, wallet, c3, "")
	l.AddExpense("2026-08-09", 25, testdata.BaseInstrument, wallet, c3, "")
	l.AddExpense("2026-08-10", 100, testdata.BaseInstrument, wallet, other, "")
	require.NoError(t, l.Apply(ctx, store))

	// the parent filter covers the whole subtree: all eight transactions
	res, err := svc.Spending(ctx, SpendingOptions{CategoryID: parent})
	require.NoError(t, err)
	require.Equal(t, 120.0, res.TotalOutcome)
	require.Len(t, res.Categories, 4)

	var sum float64
	for _, c := range res.Categories {
		sum += c.Amount
	}
	require.Equal(t, res.TotalOutcome, sum)

	// unfiltered view sees the unrelated category too
	all, err := svc.Spending(ctx, SpendingOptions{})
	require.NoError(t, err)
	require.Equal(t, 220.0, all.TotalOutcome)
	require.Equal(t, "Transport", all.Categories[0].Name)
	require.Equal(t, 100.0, all.Categories[0].Amount)
	require.InDelta(t, 45.45, all.Categories[0].SharePct, 0.01)
}

func TestSpendingExcludesTransfersAndHolds(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	abroad := l.AddAccount("Abroad", "cash", testdata.ForeignInstrument, 500)
	food := l.AddTag("Food", "")

	l.AddExpense("2026-08-02", 40, testdata.BaseInstrument, wallet, food, "")
	l.AddExpense("2026-08-03", 10, testdata.BaseInstrument, wallet, "", "")
	l.AddTransfer("2026-08-04", 100, testdata.ForeignInstrument, abroad, 100, testdata.BaseInstrument, wallet)
	holdID := l.AddExpense("2026-08-05", 7, testdata.BaseInstrument, wallet, food, "")
	for i := range l.Batch.Transactions {
		if l.Batch.Transactions[i].ID == holdID {
			l.Batch.Transactions[i].Hold = true
		}
	}
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Spending(ctx, SpendingOptions{})
	require.NoError(t, err)
	require.Equal(t, 50.0, res.TotalOutcome)

	require.NotNil(t, res.Uncategorized)
	require.Equal(t, 10.0, res.Uncategorized.Amount)
	require.NotNil(t, res.HoldsExcluded)
	require.Equal(t, 7.0, res.HoldsExcluded.Amount)
	require.Equal(t, 1, res.HoldsExcluded.Count)

	withHolds, err := svc.Spending(ctx, SpendingOptions{IncludeHolds: true})
	require.NoError(t, err)
	require.Equal(t, 57.0, withHolds.TotalOutcome)
	require.Nil(t, withHolds.HoldsExcluded)
}

func TestSpendingCapContract(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	for i := 0; i < 12; i++ {
		tag := l.AddTag(fmt.Sprintf("Category %02d", i), "")
		l.AddExpense("2026-08-02", float64(100-i), testdata.BaseInstrument, wallet, tag, "")
	}
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Spending(ctx, SpendingOptions{})
	require.NoError(t, err)
	require.Equal(t, 12, res.TotalCount)
	require.Equal(t, 10, res.ReturnedCount)
	require.Len(t, res.Categories, 10)
	require.LessOrEqual(t, res.ReturnedCount, res.TotalCount)
	// biggest first, cut from the tail
	require.Equal(t, 100.0, res.Categories[0].Amount)
	require.Equal(t, 91.0, res.Categories[9].Amount)

	small, err := svc.Spending(ctx, SpendingOptions{TopN: 3})
	require.NoError(t, err)
	require.Equal(t, 3, small.ReturnedCount)
	require.Equal(t, 12, small.TotalCount)
}

func TestTransfersCrossCurrency(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	abroad := l.AddAccount("Abroad", "cash", testdata.ForeignInstrument, 500)
	debt := l.AddAccount("IOU", "debt", testdata.BaseInstrument, 0)

	l.AddTransfer("2026-08-04", 100, testdata.ForeignInstrument, abroad, 100, testdata.BaseInstrument, wallet)
	l.AddTransfer("2026-08-05", 50, testdata.BaseInstrument, wallet, 50, testdata.BaseInstrument, wallet)
	l.AddTransfer("2026-08-06", 30, testdata.BaseInstrument, debt, 30, testdata.BaseInstrument, wallet)
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Transfers(ctx, "", 0)
	require.NoError(t, err)
	require.Equal(t, 3, res.TotalCount)
	require.Equal(t, "BSE", res.Currency)

	byType := map[string]Transfer{}
	for _, tr := range res.Transfers {
		byType[tr.Type] = tr
	}
	exchange := byType["currency_exchange"]
	require.Equal(t, 100.0, exchange.AmountOutcome)
	require.Equal(t, 400.0, exchange.OutcomeInBase)
	require.Equal(t, 100.0, exchange.IncomeInBase)
	require.Equal(t, "FRN", exchange.CurrencyOutcome)
	require.Equal(t, "BSE", exchange.CurrencyIncome)
	require.Equal(t, 1.0, exchange.EffectiveRate)

	require.Equal(t, "Wallet", byType["own_transfer"].From)
	require.Equal(t, 30.0, byType["debt"].AmountOutcome)

	// the spending side never sees these rows
	spend, err := svc.Spending(ctx, SpendingOptions{})
	require.NoError(t, err)
	require.Zero(t, spend.TotalOutcome)
}

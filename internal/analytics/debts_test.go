package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/testdata"
)

func setPayee(l *testdata.Ledger, txID, payee string) {
	for i := range l.Batch.Transactions {
		if l.Batch.Transactions[i].ID == txID {
			l.Batch.Transactions[i].Payee = &payee
		}
	}
}

func TestDebtsByCounterparty(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	debt := l.AddAccount("Debts", "debt", testdata.BaseInstrument, 0)

	// money into the debt account from yours: you lent it
	lent := l.AddTransfer("2026-08-01", 200, testdata.BaseInstrument, wallet, 200, testdata.BaseInstrument, debt)
	setPayee(l, lent, "Alex")
	// partial repayment comes back out
	repaid := l.AddTransfer("2026-08-05", 50, testdata.BaseInstrument, debt, 50, testdata.BaseInstrument, wallet)
	setPayee(l, repaid, "Alex")
	// money out of the debt account into yours: you borrowed it
	borrowed := l.AddTransfer("2026-08-03", 300, testdata.BaseInstrument, debt, 300, testdata.BaseInstrument, wallet)
	setPayee(l, borrowed, "Sam")
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Debts(ctx)
	require.NoError(t, err)
	require.Equal(t, 300.0, res.TotalYouOwe)
	require.Equal(t, 150.0, res.TotalOwedToYou)
	require.Equal(t, -150.0, res.NetPosition)
	require.Len(t, res.ByCounterparty, 2)

	// biggest absolute position first
	sam := res.ByCounterparty[0]
	require.Equal(t, "Sam", sam.Name)
	require.Equal(t, -300.0, sam.NetAmount)
	require.Equal(t, "you_owe_them", sam.Status)

	alex := res.ByCounterparty[1]
	require.Equal(t, "Alex", alex.Name)
	require.Equal(t, 150.0, alex.NetAmount)
	require.Equal(t, "they_owe_you", alex.Status)
	require.Equal(t, "2026-08-05", alex.LastActivity)
	require.Len(t, alex.Transactions, 2)
}

func TestDebtsNoDebtAccounts(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 1000)
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Debts(ctx)
	require.NoError(t, err)
	require.Empty(t, res.ByCounterparty)
	require.Zero(t, res.NetPosition)
}

func TestAccountFlow(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	wallet := l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 640)
	savings := l.AddAccount("Stash", "deposit", testdata.BaseInstrument, 200)
	food := l.AddTag("Food", "")

	l.AddIncome("2026-08-01", 1000, testdata.BaseInstrument, wallet, "", "Employer")
	l.AddExpense("2026-08-02", 60, testdata.BaseInstrument, wallet, food, "")
	l.AddExpense("2026-08-03", 100, testdata.BaseInstrument, wallet, "", "")
	l.AddTransfer("2026-08-04", 200, testdata.BaseInstrument, wallet, 200, testdata.BaseInstrument, savings)
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.AccountFlow(ctx, wallet, "")
	require.NoError(t, err)
	require.Equal(t, "Wallet", res.AccountTitle)
	require.Equal(t, 1000.0, res.TotalIncome)
	require.Equal(t, 160.0, res.TotalOutcome)
	require.Equal(t, 840.0, res.NetChange)
	require.Equal(t, 4, res.TotalCount)

	byType := map[string]FlowTransaction{}
	for _, ft := range res.Transactions {
		byType[ft.Type] = ft
	}
	require.Equal(t, 200.0, byType["transfer_out"].Amount)
	require.Equal(t, "Stash", byType["transfer_out"].Counterparty)
	require.Equal(t, "Food", byType["outcome"].Category)

	other, err := svc.AccountFlow(ctx, savings, "")
	require.NoError(t, err)
	require.Equal(t, 1, other.TotalCount)
	require.Equal(t, "transfer_in", other.Transactions[0].Type)
	require.Equal(t, "Wallet", other.Transactions[0].Counterparty)
}

func TestAccountFlowUnknownAccount(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 10)
	require.NoError(t, l.Apply(ctx, store))

	_, err := svc.AccountFlow(ctx, "no-such-account", "")
	require.Error(t, err)
}

func TestLiquidityTiers(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	l := testdata.NewLedger()
	l.AddAccount("Wallet", "cash", testdata.BaseInstrument, 100)
	l.AddAccount("Checking", "checking", testdata.BaseInstrument, 400)
	card := l.AddAccount("Card", "ccard", testdata.BaseInstrument, -50)
	l.AddAccount("Deposit", "deposit", testdata.BaseInstrument, 1000)
	for i := range l.Batch.Accounts {
		if l.Batch.Accounts[i].ID == card {
			l.Batch.Accounts[i].CreditLimit = 500
		}
	}
	require.NoError(t, l.Apply(ctx, store))

	res, err := svc.Liquidity(ctx, 600)
	require.NoError(t, err)
	// a card in the red adds no own funds, only remaining credit
	require.Equal(t, 500.0, res.LiquidOwn)
	require.Equal(t, 950.0, res.LiquidWithCredit)
	require.Equal(t, 1000.0, res.SavingsAccessible)
	require.Equal(t, 1500.0, res.TotalAvailable)

	require.NotNil(t, res.TargetCheck)
	require.False(t, res.TargetCheck.AffordableFromLiquid)
	require.True(t, res.TargetCheck.AffordableWithCredit)
	require.True(t, res.TargetCheck.AffordableWithSavings)
}

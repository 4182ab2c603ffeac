package money

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

func instrument(id int64, rate float64) repository.Instrument {
	return repository.Instrument{ID: id, Rate: rate}
}

func TestConvertCrossRate(t *testing.T) {
	t.Parallel()

	base := instrument(1, 1.0)
	foreign := instrument(2, 4.0)

	got, err := Convert(100, foreign, base)
	require.NoError(t, err)
	require.InDelta(t, 400, got, 1e-9)

	got, err = Convert(400, base, foreign)
	require.NoError(t, err)
	require.InDelta(t, 100, got, 1e-9)
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	a := instrument(1, 0.731)
	b := instrument(2, 92.45)

	there, err := Convert(1234.56, a, b)
	require.NoError(t, err)
	back, err := Convert(there, b, a)
	require.NoError(t, err)
	require.InDelta(t, 1234.56, back, 1e-6)
}

func TestConvertSameInstrument(t *testing.T) {
	t.Parallel()

	in := instrument(7, 3.5)
	got, err := Convert(55, in, in)
	require.NoError(t, err)
	require.Equal(t, 55.0, got)
}

func TestConvertMissingRate(t *testing.T) {
	t.Parallel()

	ok := instrument(1, 1.0)
	for _, bad := range []repository.Instrument{instrument(2, 0), instrument(3, -1)} {
		_, err := Convert(10, bad, ok)
		require.ErrorIs(t, err, apperrors.ErrMissingRate)
		_, err = Convert(10, ok, bad)
		require.ErrorIs(t, err, apperrors.ErrMissingRate)
	}
}

func strPtr(s string) *string { return &s }

func TestClassifyTotality(t *testing.T) {
	t.Parallel()

	types := map[string]string{"acc-cash": "cash", "acc-debt": "debt"}
	cases := []struct {
		name string
		tx   repository.Transaction
		want TxKind
	}{
		{"expense", repository.Transaction{Outcome: 50, OutcomeAccount: strPtr("acc-cash")}, KindExpense},
		{"income", repository.Transaction{Income: 50, IncomeAccount: strPtr("acc-cash")}, KindIncome},
		{"transfer", repository.Transaction{Income: 50, Outcome: 50,
			IncomeAccount: strPtr("acc-cash"), OutcomeAccount: strPtr("acc-cash")}, KindTransfer},
		{"debt wins over transfer shape", repository.Transaction{Income: 50, Outcome: 50,
			IncomeAccount: strPtr("acc-debt"), OutcomeAccount: strPtr("acc-cash")}, KindDebt},
		{"debt wins on expense shape", repository.Transaction{Outcome: 50,
			OutcomeAccount: strPtr("acc-debt")}, KindDebt},
		{"zero amounts", repository.Transaction{}, KindExpense},
		{"unknown account classifies by amounts", repository.Transaction{Income: 10,
			IncomeAccount: strPtr("nope")}, KindIncome},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.tx, types))
		})
	}
}

func tagTree() map[string]repository.Tag {
	parent := func(id string) *string { return &id }
	return map[string]repository.Tag{
		"root":       {ID: "root"},
		"child":      {ID: "child", Parent: parent("root")},
		"grandchild": {ID: "grandchild", Parent: parent("child")},
		"other":      {ID: "other"},
	}
}

func TestAncestors(t *testing.T) {
	t.Parallel()

	tags := tagTree()
	require.Equal(t, []string{"grandchild", "child", "root"}, Ancestors("grandchild", tags))
	require.Equal(t, []string{"root"}, Ancestors("root", tags))
	require.Empty(t, Ancestors("missing", tags))
}

func TestAncestorsCycleFailsClosed(t *testing.T) {
	t.Parallel()

	a, b := "a", "b"
	tags := map[string]repository.Tag{
		"a": {ID: "a", Parent: &b},
		"b": {ID: "b", Parent: &a},
	}
	chain := Ancestors("a", tags)
	require.Equal(t, []string{"a", "b"}, chain)
}

func TestRoot(t *testing.T) {
	t.Parallel()

	tags := tagTree()
	require.Equal(t, "root", Root("grandchild", tags))
	require.Equal(t, "missing", Root("missing", tags))
}

func TestRollupSet(t *testing.T) {
	t.Parallel()

	tags := tagTree()
	set := RollupSet("root", tags)
	require.True(t, set["root"])
	require.True(t, set["child"])
	require.True(t, set["grandchild"])
	require.False(t, set["other"])

	leaf := RollupSet("grandchild", tags)
	require.Len(t, leaf, 1)
}

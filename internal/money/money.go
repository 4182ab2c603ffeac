// Package money holds the pure financial primitives shared by sync and
// analytics: currency conversion through base-unit rates, transaction
// classification, and category tree traversal.
package money

import (
	"fmt"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

// Convert moves an amount between instruments through the shared base unit:
// amount * from.Rate / to.Rate. A missing or non-positive rate on either
// side yields ErrMissingRate; amounts are never silently passed through.
func Convert(amount float64, from, to repository.Instrument) (float64, error) {
	if from.Rate <= 0 {
		return 0, fmt.Errorf("%w: instrument %d (%s)", apperrors.ErrMissingRate, from.ID, from.ShortTitle)
	}
	if to.Rate <= 0 {
		return 0, fmt.Errorf("%w: instrument %d (%s)", apperrors.ErrMissingRate, to.ID, to.ShortTitle)
	}
	if from.ID == to.ID {
		return amount, nil
	}
	return amount * from.Rate / to.Rate, nil
}

// TxKind is the derived classification of a transaction. Every transaction
// maps to exactly one kind.
type TxKind string

const (
	KindExpense  TxKind = "expense"
	KindIncome   TxKind = "income"
	KindTransfer TxKind = "transfer"
	KindDebt     TxKind = "debt"
)

// Classify derives the kind from the amount shape and account types.
// Both sides set means a transfer between own accounts, unless either side
// is a debt account, which wins. accountTypes maps account id to its type
// string; unknown accounts classify by amounts alone.
func Classify(t repository.Transaction, accountTypes map[string]string) TxKind {
	if isDebtSide(t.IncomeAccount, accountTypes) || isDebtSide(t.OutcomeAccount, accountTypes) {
		return KindDebt
	}
	switch {
	case t.Income > 0 && t.Outcome > 0:
		return KindTransfer
	case t.Income > 0:
		return KindIncome
	default:
		return KindExpense
	}
}

func isDebtSide(account *string, accountTypes map[string]string) bool {
	if account == nil {
		return false
	}
	return accountTypes[*account] == "debt"
}

// Ancestors walks from tag id to the root, returning the chain starting at
// the tag itself. The walk fails closed: a cycle or a dangling parent stops
// the chain at the last sound node instead of looping or erroring.
func Ancestors(id string, tags map[string]repository.Tag) []string {
	var chain []string
	visited := map[string]bool{}
	for id != "" && !visited[id] {
		t, ok := tags[id]
		if !ok {
			break
		}
		visited[id] = true
		chain = append(chain, id)
		if t.Parent == nil {
			break
		}
		id = *t.Parent
	}
	return chain
}

// Root returns the top-most ancestor of a tag, or the tag itself when it
// has no sound parent chain.
func Root(id string, tags map[string]repository.Tag) string {
	chain := Ancestors(id, tags)
	if len(chain) == 0 {
		return id
	}
	return chain[len(chain)-1]
}

// RollupSet returns the tag and every descendant, as a membership set.
// Used to aggregate a parent category over its whole subtree.
func RollupSet(id string, tags map[string]repository.Tag) map[string]bool {
	children := map[string][]string{}
	for tid, t := range tags {
		if t.Parent != nil {
			children[*t.Parent] = append(children[*t.Parent], tid)
		}
	}
	set := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if set[cur] {
			continue
		}
		set[cur] = true
		queue = append(queue, children[cur]...)
	}
	return set
}

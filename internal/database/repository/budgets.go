package repository

import (
	"context"
	"database/sql"
)

// BudgetRepo handles budget reads.
type BudgetRepo struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

// ForMonth returns live budget rows for one 'YYYY-MM-01' month.
func (r *BudgetRepo) ForMonth(ctx context.Context, month string) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT tag, month, income, income_lock, outcome, outcome_lock, changed, deleted
	FROM budgets WHERE deleted = 0 AND month = ?`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		var tag string
		if err := rows.Scan(&tag, &b.Month, &b.Income, &b.IncomeLock,
			&b.Outcome, &b.OutcomeLock, &b.Changed, &b.Deleted); err != nil {
			return nil, err
		}
		// '' is the storage form of the uncategorized line
		if tag != "" {
			b.Tag = &tag
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// TransactionFilters narrows a transaction listing. Zero values mean "no
// constraint". Date bounds are inclusive 'YYYY-MM-DD' strings. Kind splits
// on the amount shape: expense (outcome only), income (income only),
// transfer (both sides).
type TransactionFilters struct {
	DateFrom      string
	DateTo        string
	Kind          string
	AccountID     string
	MerchantID    string
	PrimaryTags   []string
	Uncategorized bool
	MinAmount     *float64
	MaxAmount     *float64
	IncludeHolds  bool
	Limit         int
	Offset        int
}

// TransactionRepo handles transaction reads. Soft-deleted rows never
// surface here.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionCols = `id, date, hold, income, income_instrument, income_account,
 outcome, outcome_instrument, outcome_account, tag, merchant, payee, comment, changed, deleted`

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var hold sql.NullBool
	var tags sql.NullString
	if err := row.Scan(&t.ID, &t.Date, &hold, &t.Income, &t.IncomeInstrument,
		&t.IncomeAccount, &t.Outcome, &t.OutcomeInstrument, &t.OutcomeAccount,
		&tags, &t.Merchant, &t.Payee, &t.Comment, &t.Changed, &t.Deleted); err != nil {
		return Transaction{}, err
	}
	t.Hold = hold.Bool
	t.Tags = unmarshalTags(tags)
	return t, nil
}

func (f TransactionFilters) where() (string, []any) {
	conds := []string{"deleted = 0"}
	var args []any
	if !f.IncludeHolds {
		conds = append(conds, "(hold IS NULL OR hold = 0)")
	}
	if f.DateFrom != "" {
		conds = append(conds, "date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		conds = append(conds, "date <= ?")
		args = append(args, f.DateTo)
	}
	switch f.Kind {
	case "expense":
		conds = append(conds, "outcome > 0 AND income = 0")
	case "income":
		conds = append(conds, "income > 0 AND outcome = 0")
	case "transfer":
		conds = append(conds, "income > 0 AND outcome > 0")
	}
	if f.AccountID != "" {
		conds = append(conds, "(income_account = ? OR outcome_account = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.MerchantID != "" {
		conds = append(conds, "merchant = ?")
		args = append(args, f.MerchantID)
	}
	if len(f.PrimaryTags) > 0 {
		ph := strings.TrimRight(strings.Repeat("?,", len(f.PrimaryTags)), ",")
		conds = append(conds, "json_extract(tag, '$[0]') IN ("+ph+")")
		for _, id := range f.PrimaryTags {
			args = append(args, id)
		}
	}
	if f.Uncategorized {
		conds = append(conds, "(tag IS NULL OR json_array_length(tag) = 0)")
	}
	if f.MinAmount != nil {
		conds = append(conds, "MAX(income, outcome) >= ?")
		args = append(args, *f.MinAmount)
	}
	if f.MaxAmount != nil {
		conds = append(conds, "MAX(income, outcome) <= ?")
		args = append(args, *f.MaxAmount)
	}
	return strings.Join(conds, " AND "), args
}

// List returns matching transactions, newest first.
func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	where, args := f.where()
	q := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY date DESC, changed DESC`,
		transactionCols, where)
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns how many transactions match, ignoring Limit and Offset.
func (r *TransactionRepo) Count(ctx context.Context, f TransactionFilters) (int, error) {
	where, args := f.where()
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&n)
	return n, err
}

// Total returns the count of live transactions, holds included. Used as
// the cache-population probe.
func (r *TransactionRepo) Total(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE deleted = 0`).Scan(&n)
	return n, err
}

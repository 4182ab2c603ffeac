package repository

import (
	"context"
	"database/sql"
)

// AccountRepo handles account reads.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountCols = `id, title, type, instrument, balance, credit_limit,
 in_balance, savings, archive, changed, deleted`

func scanAccount(row scanner) (Account, error) {
	var a Account
	var title, typ sql.NullString
	var balance, credit sql.NullFloat64
	if err := row.Scan(&a.ID, &title, &typ, &a.Instrument, &balance, &credit,
		&a.InBalance, &a.Savings, &a.Archive, &a.Changed, &a.Deleted); err != nil {
		return Account{}, err
	}
	a.Title = title.String
	a.Type = typ.String
	a.Balance = balance.Float64
	a.CreditLimit = credit.Float64
	return a, nil
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = ? AND deleted = 0`, id)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListActive returns non-archived live accounts ordered by type then balance.
func (r *AccountRepo) ListActive(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+accountCols+` FROM accounts
	WHERE deleted = 0 AND archive = 0
	ORDER BY type, balance DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListByType returns live non-archived accounts of one type.
func (r *AccountRepo) ListByType(ctx context.Context, accountType string) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+accountCols+` FROM accounts
	WHERE deleted = 0 AND archive = 0 AND type = ?
	ORDER BY balance DESC`, accountType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ByID returns every account, archived and soft-deleted included, keyed by
// id. Historical transactions keep referencing archived and deleted
// accounts, so enrichment joins need the full directory.
func (r *AccountRepo) ByID(ctx context.Context) (map[string]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountCols+` FROM accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Account, len(list))
	for _, a := range list {
		m[a.ID] = a
	}
	return m, nil
}

func collectAccounts(rows *sql.Rows) ([]Account, error) {
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

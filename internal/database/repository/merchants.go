package repository

import (
	"context"
	"database/sql"
)

// MerchantRepo handles counterparty directory reads.
type MerchantRepo struct {
	db *sql.DB
}

func NewMerchantRepo(db *sql.DB) *MerchantRepo { return &MerchantRepo{db: db} }

// ByID returns every merchant keyed by id, soft-deleted included, for
// enrichment joins.
func (r *MerchantRepo) ByID(ctx context.Context) (map[string]Merchant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, changed, deleted FROM merchants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := map[string]Merchant{}
	for rows.Next() {
		var mr Merchant
		var title sql.NullString
		if err := rows.Scan(&mr.ID, &title, &mr.Changed, &mr.Deleted); err != nil {
			return nil, err
		}
		mr.Title = title.String
		m[mr.ID] = mr
	}
	return m, rows.Err()
}

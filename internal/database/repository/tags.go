package repository

import (
	"context"
	"database/sql"
)

// TagRepo handles category reads.
type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

const tagCols = `id, title, parent, show_income, show_outcome, changed, deleted`

func scanTag(row scanner) (Tag, error) {
	var t Tag
	var title sql.NullString
	if err := row.Scan(&t.ID, &title, &t.Parent, &t.ShowIncome, &t.ShowOutcome,
		&t.Changed, &t.Deleted); err != nil {
		return Tag{}, err
	}
	t.Title = title.String
	return t, nil
}

func (r *TagRepo) List(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tagCols+` FROM tags WHERE deleted = 0 ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ByID returns every tag keyed by id, soft-deleted included. Old
// transactions may still point at deleted tags.
func (r *TagRepo) ByID(ctx context.Context) (map[string]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tagCols+` FROM tags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := map[string]Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		m[t.ID] = t
	}
	return m, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jask/zenledger/internal/apperrors"
)

// InstrumentRepo handles currency lookups.
type InstrumentRepo struct {
	db *sql.DB
}

func NewInstrumentRepo(db *sql.DB) *InstrumentRepo { return &InstrumentRepo{db: db} }

const instrumentCols = `id, title, short_title, symbol, rate, changed, deleted`

func scanInstrument(row scanner) (Instrument, error) {
	var in Instrument
	var title, short, symbol sql.NullString
	var rate sql.NullFloat64
	if err := row.Scan(&in.ID, &title, &short, &symbol, &rate, &in.Changed, &in.Deleted); err != nil {
		return Instrument{}, err
	}
	in.Title = title.String
	in.ShortTitle = short.String
	in.Symbol = symbol.String
	in.Rate = rate.Float64
	return in, nil
}

func (r *InstrumentRepo) Get(ctx context.Context, id int64) (*Instrument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+instrumentCols+` FROM instruments WHERE id = ? AND deleted = 0`, id)
	in, err := scanInstrument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// GetByCode resolves an instrument by its short code ('USD', 'EUR', ...).
func (r *InstrumentRepo) GetByCode(ctx context.Context, code string) (*Instrument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+instrumentCols+` FROM instruments WHERE short_title = ? AND deleted = 0`,
		strings.ToUpper(code))
	in, err := scanInstrument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

func (r *InstrumentRepo) List(ctx context.Context) ([]Instrument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+instrumentCols+` FROM instruments WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Instrument
	for rows.Next() {
		in, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ByID returns all live instruments keyed by id, for batch conversion.
func (r *InstrumentRepo) ByID(ctx context.Context) (map[int64]Instrument, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]Instrument, len(list))
	for _, in := range list {
		m[in.ID] = in
	}
	return m, nil
}

// Base returns the primary user's base instrument. The primary user is the
// row with a NULL parent.
func (r *InstrumentRepo) Base(ctx context.Context) (*Instrument, error) {
	var currency int64
	err := r.db.QueryRowContext(ctx,
		`SELECT currency FROM users WHERE parent IS NULL AND deleted = 0 LIMIT 1`).Scan(&currency)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrEmptyCache
		}
		return nil, err
	}
	in, err := r.Get(ctx, currency)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, apperrors.ErrMissingRate
	}
	return in, nil
}

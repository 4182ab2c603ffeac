package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database"
)

// Batch is one diff page worth of entity records plus its paired deletion
// list and the cursor that produced it. A batch is always applied in a
// single transaction: upserts, deletions and the cursor land together or
// not at all.
type Batch struct {
	Instruments     []Instrument
	Users           []User
	Accounts        []Account
	Tags            []Tag
	Merchants       []Merchant
	Transactions    []Transaction
	Budgets         []Budget
	Reminders       []Reminder
	ReminderMarkers []ReminderMarker
	Deletions       []Deletion
	ServerTimestamp int64
	SyncedAt        time.Time
}

// Applied reports per-kind merge counts for one or more batches.
type Applied struct {
	Upserted map[Kind]int
	Deleted  map[Kind]int
}

func newApplied() Applied {
	return Applied{Upserted: map[Kind]int{}, Deleted: map[Kind]int{}}
}

func (a Applied) merge(b Applied) Applied {
	for k, n := range b.Upserted {
		a.Upserted[k] += n
	}
	for k, n := range b.Deleted {
		a.Deleted[k] += n
	}
	return a
}

// Store owns all writes to the cache. Reads used by analytics live in the
// sibling query repos; nothing outside this type mutates persisted state.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for read-side repos.
func (s *Store) DB() *sql.DB { return s.db }

// ApplyDiff applies one batch transactionally. Records replace existing
// rows with the same id, last write wins within the batch. The sync cursor
// advances in the same transaction, so a crash mid-merge leaves the
// previous cursor intact and the next pass re-requests the same window.
func (s *Store) ApplyDiff(ctx context.Context, b *Batch) (Applied, error) {
	applied := newApplied()
	err := database.WithTx(s.db, func(tx *sql.Tx) error {
		var err error
		applied, err = applyBatch(ctx, tx, b)
		if err != nil {
			return err
		}
		return setSyncState(ctx, tx, b.ServerTimestamp, b.SyncedAt)
	})
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %v", apperrors.ErrCacheIntegrity, err)
	}
	return applied, nil
}

// ReplaceAll wipes every entity table and applies the given batches in
// order inside one transaction. Used for full resync: concurrent readers
// never observe a half-populated store because the swap is a single
// commit.
func (s *Store) ReplaceAll(ctx context.Context, batches []*Batch) (Applied, error) {
	applied := newApplied()
	err := database.WithTx(s.db, func(tx *sql.Tx) error {
		for _, k := range Kinds {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+k.Table()); err != nil {
				return fmt.Errorf("clear %s: %w", k.Table(), err)
			}
		}
		var cursor int64
		var at time.Time
		for _, b := range batches {
			got, err := applyBatch(ctx, tx, b)
			if err != nil {
				return err
			}
			applied = applied.merge(got)
			cursor, at = b.ServerTimestamp, b.SyncedAt
		}
		return setSyncState(ctx, tx, cursor, at)
	})
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %v", apperrors.ErrCacheIntegrity, err)
	}
	return applied, nil
}

// GetSyncState returns the persisted cursor record. A zero-value state
// (timestamp 0, nil SyncedAt) means no sync has ever completed.
func (s *Store) GetSyncState(ctx context.Context) (SyncState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT server_timestamp, synced_at, entity_counts FROM sync_state WHERE id = 1`)
	var st SyncState
	var syncedAt sql.NullTime
	var counts sql.NullString
	if err := row.Scan(&st.ServerTimestamp, &syncedAt, &counts); err != nil {
		if err == sql.ErrNoRows {
			return SyncState{}, nil
		}
		return SyncState{}, err
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		st.SyncedAt = &t
	}
	if counts.Valid && counts.String != "" {
		_ = json.Unmarshal([]byte(counts.String), &st.EntityCounts)
	}
	return st, nil
}

func setSyncState(ctx context.Context, tx *sql.Tx, cursor int64, at time.Time) error {
	counts := map[string]int{}
	for _, k := range Kinds {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+k.Table()).Scan(&n); err != nil {
			return err
		}
		counts[string(k)] = n
	}
	blob, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO sync_state(id, server_timestamp, synced_at, entity_counts)
	VALUES(1, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 server_timestamp = excluded.server_timestamp,
	 synced_at = excluded.synced_at,
	 entity_counts = excluded.entity_counts`,
		cursor, at, string(blob))
	return err
}

func applyBatch(ctx context.Context, tx *sql.Tx, b *Batch) (Applied, error) {
	applied := newApplied()

	for _, v := range b.Instruments {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO instruments(id, title, short_title, symbol, rate, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Title, v.ShortTitle, v.Symbol, v.Rate, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert instrument %d: %w", v.ID, err)
		}
		applied.Upserted[KindInstrument]++
	}
	for _, v := range b.Users {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO users(id, login, currency, parent, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?)`,
			v.ID, v.Login, v.Currency, v.Parent, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert user %d: %w", v.ID, err)
		}
		applied.Upserted[KindUser]++
	}
	for _, v := range b.Accounts {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts(id, title, type, instrument, balance, credit_limit,
		 in_balance, savings, archive, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Title, v.Type, v.Instrument, v.Balance, v.CreditLimit,
			v.InBalance, v.Savings, v.Archive, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert account %s: %w", v.ID, err)
		}
		applied.Upserted[KindAccount]++
	}
	for _, v := range b.Tags {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO tags(id, title, parent, show_income, show_outcome, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Title, v.Parent, v.ShowIncome, v.ShowOutcome, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert tag %s: %w", v.ID, err)
		}
		applied.Upserted[KindTag]++
	}
	for _, v := range b.Merchants {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO merchants(id, title, changed, deleted)
		VALUES(?, ?, ?, ?)`,
			v.ID, v.Title, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert merchant %s: %w", v.ID, err)
		}
		applied.Upserted[KindMerchant]++
	}
	for _, v := range b.Transactions {
		tags, err := marshalTags(v.Tags)
		if err != nil {
			return applied, err
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO transactions(id, date, hold, income, income_instrument,
		 income_account, outcome, outcome_instrument, outcome_account, tag, merchant,
		 payee, comment, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Date, v.Hold, v.Income, v.IncomeInstrument,
			v.IncomeAccount, v.Outcome, v.OutcomeInstrument, v.OutcomeAccount, tags,
			v.Merchant, v.Payee, v.Comment, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert transaction %s: %w", v.ID, err)
		}
		applied.Upserted[KindTransaction]++
	}
	for _, v := range b.Budgets {
		// the uncategorized budget lands under '' so the (tag, month) key
		// replaces instead of duplicating when the page is re-applied
		tag := ""
		if v.Tag != nil {
			tag = *v.Tag
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO budgets(tag, month, income, income_lock, outcome, outcome_lock, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			tag, v.Month, v.Income, v.IncomeLock, v.Outcome, v.OutcomeLock, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert budget %s: %w", v.Month, err)
		}
		applied.Upserted[KindBudget]++
	}
	for _, v := range b.Reminders {
		tags, err := marshalTags(v.Tags)
		if err != nil {
			return applied, err
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reminders(id, interval, step, start_date, end_date, income,
		 outcome, income_account, outcome_account, tag, merchant, payee, comment, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Interval, v.Step, v.StartDate, v.EndDate, v.Income,
			v.Outcome, v.IncomeAccount, v.OutcomeAccount, tags, v.Merchant,
			v.Payee, v.Comment, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert reminder %s: %w", v.ID, err)
		}
		applied.Upserted[KindReminder]++
	}
	for _, v := range b.ReminderMarkers {
		tags, err := marshalTags(v.Tags)
		if err != nil {
			return applied, err
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reminder_markers(id, reminder, date, state, income, outcome,
		 income_account, outcome_account, tag, merchant, payee, comment, changed, deleted)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Reminder, v.Date, v.State, v.Income, v.Outcome,
			v.IncomeAccount, v.OutcomeAccount, tags, v.Merchant,
			v.Payee, v.Comment, v.Changed, v.Deleted); err != nil {
			return applied, fmt.Errorf("upsert reminder marker %s: %w", v.ID, err)
		}
		applied.Upserted[KindReminderMarker]++
	}

	// Deletions flip the soft-delete flag, rows stay behind for historical
	// joins. Applied in the same transaction as the upserts of this page so
	// a delete-then-recreate window can never resurrect out of order.
	for _, d := range b.Deletions {
		table := d.Kind.Table()
		if table == "" {
			return applied, fmt.Errorf("%w: unknown deletion kind %q", apperrors.ErrProtocol, d.Kind)
		}
		var res sql.Result
		var err error
		if d.Kind == KindBudget {
			// budgets have no single id column; the wire identifies them by tag
			res, err = tx.ExecContext(ctx, `UPDATE budgets SET deleted = 1 WHERE tag = ?`, d.ID)
		} else {
			res, err = tx.ExecContext(ctx, "UPDATE "+table+" SET deleted = 1 WHERE id = ?", d.ID)
		}
		if err != nil {
			return applied, fmt.Errorf("delete %s %s: %w", d.Kind, d.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			applied.Deleted[d.Kind] += int(n)
		}
	}
	return applied, nil
}

func marshalTags(tags []string) (*string, error) {
	if tags == nil {
		return nil, nil
	}
	blob, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	s := string(blob)
	return &s, nil
}

func unmarshalTags(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil
	}
	return tags
}

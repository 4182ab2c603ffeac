package repository

import (
	"context"
	"database/sql"
)

// ReminderRepo handles scheduled-payment reads.
type ReminderRepo struct {
	db *sql.DB
}

func NewReminderRepo(db *sql.DB) *ReminderRepo { return &ReminderRepo{db: db} }

const reminderCols = `id, interval, step, start_date, end_date, income, outcome,
 income_account, outcome_account, tag, merchant, payee, comment, changed, deleted`

func scanReminder(row scanner) (Reminder, error) {
	var rm Reminder
	var tags sql.NullString
	if err := row.Scan(&rm.ID, &rm.Interval, &rm.Step, &rm.StartDate, &rm.EndDate,
		&rm.Income, &rm.Outcome, &rm.IncomeAccount, &rm.OutcomeAccount, &tags,
		&rm.Merchant, &rm.Payee, &rm.Comment, &rm.Changed, &rm.Deleted); err != nil {
		return Reminder{}, err
	}
	rm.Tags = unmarshalTags(tags)
	return rm, nil
}

// ListRecurring returns live reminders that repeat (interval set) and move
// money out.
func (r *ReminderRepo) ListRecurring(ctx context.Context) ([]Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+reminderCols+` FROM reminders
	WHERE deleted = 0 AND interval IS NOT NULL AND outcome > 0
	ORDER BY outcome DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reminder
	for rows.Next() {
		rm, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// MarkerRepo handles reminder occurrence reads.
type MarkerRepo struct {
	db *sql.DB
}

func NewMarkerRepo(db *sql.DB) *MarkerRepo { return &MarkerRepo{db: db} }

const markerCols = `id, reminder, date, state, income, outcome, income_account,
 outcome_account, tag, merchant, payee, comment, changed, deleted`

func scanMarker(row scanner) (ReminderMarker, error) {
	var m ReminderMarker
	var tags sql.NullString
	if err := row.Scan(&m.ID, &m.Reminder, &m.Date, &m.State, &m.Income, &m.Outcome,
		&m.IncomeAccount, &m.OutcomeAccount, &tags, &m.Merchant, &m.Payee,
		&m.Comment, &m.Changed, &m.Deleted); err != nil {
		return ReminderMarker{}, err
	}
	m.Tags = unmarshalTags(tags)
	return m, nil
}

// Planned returns planned markers inside the inclusive date window,
// soonest first.
func (r *MarkerRepo) Planned(ctx context.Context, from, to string) ([]ReminderMarker, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+markerCols+` FROM reminder_markers
	WHERE deleted = 0 AND state = 'planned' AND date >= ? AND date <= ?
	ORDER BY date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReminderMarker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Package testdata builds seeded fake ledgers for tests. Ids are minted
// here only; production code never generates identifiers.
package testdata

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jask/zenledger/internal/database/repository"
)

// Base and foreign instrument ids used by NewLedger.
const (
	BaseInstrument    int64 = 1
	ForeignInstrument int64 = 2
)

// Ledger accumulates entities for one synthetic diff batch.
type Ledger struct {
	Batch repository.Batch
}

// NewLedger returns a ledger pre-seeded with a base instrument (rate 1.0),
// a foreign instrument (rate 4.0) and a primary user denominated in the
// base instrument.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Batch.Instruments = []repository.Instrument{
		{ID: BaseInstrument, Title: "Base unit", ShortTitle: "BSE", Symbol: "b", Rate: 1.0, Changed: 1},
		{ID: ForeignInstrument, Title: "Foreign unit", ShortTitle: "FRN", Symbol: "f", Rate: 4.0, Changed: 1},
	}
	l.Batch.Users = []repository.User{
		{ID: 1, Login: "owner", Currency: BaseInstrument, Changed: 1},
	}
	l.Batch.ServerTimestamp = 1000
	l.Batch.SyncedAt = time.Now().UTC()
	return l
}

// AddInstrument registers an extra currency and returns its id.
func (l *Ledger) AddInstrument(id int64, code string, rate float64) int64 {
	l.Batch.Instruments = append(l.Batch.Instruments, repository.Instrument{
		ID: id, Title: code, ShortTitle: code, Rate: rate, Changed: 1,
	})
	return id
}

// AddAccount registers an in-balance account and returns its id.
func (l *Ledger) AddAccount(title, accountType string, instrument int64, balance float64) string {
	id := uuid.NewString()
	l.Batch.Accounts = append(l.Batch.Accounts, repository.Account{
		ID:         id,
		Title:      title,
		Type:       accountType,
		Instrument: instrument,
		Balance:    balance,
		InBalance:  true,
		Changed:    1,
	})
	return id
}

// AddTag registers a category; parent may be empty for a root tag.
func (l *Ledger) AddTag(title, parent string) string {
	id := uuid.NewString()
	t := repository.Tag{ID: id, Title: title, ShowOutcome: true, Changed: 1}
	if parent != "" {
		t.Parent = &parent
	}
	l.Batch.Tags = append(l.Batch.Tags, t)
	return id
}

// AddMerchant registers a counterparty.
func (l *Ledger) AddMerchant(title string) string {
	id := uuid.NewString()
	l.Batch.Merchants = append(l.Batch.Merchants, repository.Merchant{ID: id, Title: title, Changed: 1})
	return id
}

// AddExpense records an outcome-only transaction and returns its id.
// tag and payee may be empty.
func (l *Ledger) AddExpense(date string, amount float64, instrument int64, account, tag, payee string) string {
	id := uuid.NewString()
	t := repository.Transaction{
		ID:                id,
		Date:              date,
		Outcome:           amount,
		OutcomeInstrument: instrument,
		OutcomeAccount:    &account,
		Changed:           1,
	}
	if tag != "" {
		t.Tags = []string{tag}
	}
	if payee != "" {
		t.Payee = &payee
	}
	l.Batch.Transactions = append(l.Batch.Transactions, t)
	return id
}

// AddIncome records an income-only transaction and returns its id.
func (l *Ledger) AddIncome(date string, amount float64, instrument int64, account, tag, payee string) string {
	id := uuid.NewString()
	t := repository.Transaction{
		ID:               id,
		Date:             date,
		Income:           amount,
		IncomeInstrument: instrument,
		IncomeAccount:    &account,
		Changed:          1,
	}
	if tag != "" {
		t.Tags = []string{tag}
	}
	if payee != "" {
		t.Payee = &payee
	}
	l.Batch.Transactions = append(l.Batch.Transactions, t)
	return id
}

// AddTransfer records a both-sides transaction between two accounts, each
// side in its own instrument, and returns its id.
func (l *Ledger) AddTransfer(date string, outAmount float64, outInstrument int64, outAccount string,
	inAmount float64, inInstrument int64, inAccount string) string {
	id := uuid.NewString()
	l.Batch.Transactions = append(l.Batch.Transactions, repository.Transaction{
		ID:                id,
		Date:              date,
		Income:            inAmount,
		IncomeInstrument:  inInstrument,
		IncomeAccount:     &inAccount,
		Outcome:           outAmount,
		OutcomeInstrument: outInstrument,
		OutcomeAccount:    &outAccount,
		Changed:           1,
	})
	return id
}

// AddBudget registers a budget row for one month ('YYYY-MM-01').
func (l *Ledger) AddBudget(tag, month string, outcome float64, locked bool) {
	b := repository.Budget{Month: month, Outcome: outcome, OutcomeLock: locked, Changed: 1}
	if tag != "" {
		b.Tag = &tag
	}
	l.Batch.Budgets = append(l.Batch.Budgets, b)
}

// AddPlannedMarker registers a planned reminder occurrence.
func (l *Ledger) AddPlannedMarker(date string, outcome float64, account, tag string) string {
	id := uuid.NewString()
	m := repository.ReminderMarker{
		ID:             id,
		Reminder:       uuid.NewString(),
		Date:           date,
		State:          "planned",
		Outcome:        outcome,
		OutcomeAccount: &account,
		Changed:        1,
	}
	if tag != "" {
		m.Tags = []string{tag}
	}
	l.Batch.ReminderMarkers = append(l.Batch.ReminderMarkers, m)
	return id
}

// Apply writes the accumulated batch through the store, recording the
// sync state so analytics see a populated cache.
func (l *Ledger) Apply(ctx context.Context, store *repository.Store) error {
	_, err := store.ApplyDiff(ctx, &l.Batch)
	return err
}

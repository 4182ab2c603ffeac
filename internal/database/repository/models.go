package repository

import (
	"encoding/json"
	"time"
)

// Entity ids are assigned by the remote ledger; the cache never generates
// identifiers. Dates travel as 'YYYY-MM-DD' strings, matching both the wire
// format and the column encoding, so range filters compare lexicographically.

// Instrument represents a currency with its rate to the base unit.
type Instrument struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	ShortTitle string   `json:"shortTitle"`
	Symbol     string   `json:"symbol"`
	Rate       float64  `json:"rate"`
	Changed    int64    `json:"changed"`
	Deleted    bool     `json:"-"`
}

// User carries the base-instrument reference. The primary user is the row
// with a NULL parent.
type User struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Currency int64  `json:"currency"`
	Parent   *int64 `json:"parent"`
	Changed  int64  `json:"changed"`
	Deleted  bool   `json:"-"`
}

// Account represents an account row. Balance is denominated in the
// account's own instrument, never pre-converted.
type Account struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Instrument  int64   `json:"instrument"`
	Balance     float64 `json:"balance"`
	CreditLimit float64 `json:"creditLimit"`
	InBalance   bool    `json:"inBalance"`
	Savings     bool    `json:"savings"`
	Archive     bool    `json:"archive"`
	Changed     int64   `json:"changed"`
	Deleted     bool    `json:"-"`
}

// Tag represents a spending/income category. Parent is nil for roots;
// the tree carries no cycles in healthy data, traversal fails closed.
type Tag struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Parent      *string `json:"parent"`
	ShowIncome  bool    `json:"showIncome"`
	ShowOutcome bool    `json:"showOutcome"`
	Changed     int64   `json:"changed"`
	Deleted     bool    `json:"-"`
}

// Merchant represents a counterparty directory row.
type Merchant struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Changed int64  `json:"changed"`
	Deleted bool   `json:"-"`
}

// Transaction represents a ledger row. Classification (expense, income,
// transfer, debt) is derived from the amounts and account types, never
// stored.
type Transaction struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	Hold              bool     `json:"hold"`
	Income            float64  `json:"income"`
	IncomeInstrument  int64    `json:"incomeInstrument"`
	IncomeAccount     *string  `json:"incomeAccount"`
	Outcome           float64  `json:"outcome"`
	OutcomeInstrument int64    `json:"outcomeInstrument"`
	OutcomeAccount    *string  `json:"outcomeAccount"`
	Tags              []string `json:"tag"`
	Merchant          *string  `json:"merchant"`
	Payee             *string  `json:"payee"`
	Comment           *string  `json:"comment"`
	Changed           int64    `json:"changed"`
	Deleted           bool     `json:"deleted"`
}

// PrimaryTag returns the first tag id, or empty when uncategorized.
func (t Transaction) PrimaryTag() string {
	if len(t.Tags) == 0 {
		return ""
	}
	return t.Tags[0]
}

// Budget represents planned income/outcome for one (tag, month) pair.
// Tag may be nil (uncategorized) or the all-zero uuid (monthly total).
type Budget struct {
	Tag         *string `json:"tag"`
	Month       string  `json:"date"`
	Income      float64 `json:"income"`
	IncomeLock  bool    `json:"incomeLock"`
	Outcome     float64 `json:"outcome"`
	OutcomeLock bool    `json:"outcomeLock"`
	Changed     int64   `json:"changed"`
	Deleted     bool    `json:"-"`
}

// TotalBudgetTag marks a budget row covering the whole month.
const TotalBudgetTag = "00000000-0000-0000-0000-000000000000"

// Reminder is a scheduled payment template.
type Reminder struct {
	ID             string   `json:"id"`
	Interval       *string  `json:"interval"`
	Step           int64    `json:"step"`
	StartDate      string   `json:"startDate"`
	EndDate        *string  `json:"endDate"`
	Income         float64  `json:"income"`
	Outcome        float64  `json:"outcome"`
	IncomeAccount  *string  `json:"incomeAccount"`
	OutcomeAccount *string  `json:"outcomeAccount"`
	Tags           []string `json:"tag"`
	Merchant       *string  `json:"merchant"`
	Payee          *string  `json:"payee"`
	Comment        *string  `json:"comment"`
	Changed        int64    `json:"changed"`
	Deleted        bool     `json:"-"`
}

// ReminderMarker materializes one future or past occurrence of a Reminder.
// Markers in state 'planned' with a future date are "upcoming".
type ReminderMarker struct {
	ID             string   `json:"id"`
	Reminder       string   `json:"reminder"`
	Date           string   `json:"date"`
	State          string   `json:"state"`
	Income         float64  `json:"income"`
	Outcome        float64  `json:"outcome"`
	IncomeAccount  *string  `json:"incomeAccount"`
	OutcomeAccount *string  `json:"outcomeAccount"`
	Tags           []string `json:"tag"`
	Merchant       *string  `json:"merchant"`
	Payee          *string  `json:"payee"`
	Comment        *string  `json:"comment"`
	Changed        int64    `json:"changed"`
	Deleted        bool     `json:"-"`
}

// Kind tags the closed set of entity variants flowing through the generic
// merge path.
type Kind string

const (
	KindInstrument     Kind = "instrument"
	KindUser           Kind = "user"
	KindAccount        Kind = "account"
	KindTag            Kind = "tag"
	KindMerchant       Kind = "merchant"
	KindTransaction    Kind = "transaction"
	KindBudget         Kind = "budget"
	KindReminder       Kind = "reminder"
	KindReminderMarker Kind = "reminderMarker"
)

// Kinds lists every entity kind in merge order.
var Kinds = []Kind{
	KindInstrument, KindUser, KindAccount, KindTag, KindMerchant,
	KindTransaction, KindBudget, KindReminder, KindReminderMarker,
}

// Table maps a kind to its table name, or empty for unknown kinds.
func (k Kind) Table() string {
	switch k {
	case KindInstrument:
		return "instruments"
	case KindUser:
		return "users"
	case KindAccount:
		return "accounts"
	case KindTag:
		return "tags"
	case KindMerchant:
		return "merchants"
	case KindTransaction:
		return "transactions"
	case KindBudget:
		return "budgets"
	case KindReminder:
		return "reminders"
	case KindReminderMarker:
		return "reminder_markers"
	}
	return ""
}

// Deletion is one entry of a diff page's deletion list. The wire carries
// string ids for most kinds but numeric ids for instruments and users; both
// decode into the string form.
type Deletion struct {
	Kind Kind   `json:"object"`
	ID   string `json:"id"`
}

func (d *Deletion) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind Kind            `json:"object"`
		ID   json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Kind = raw.Kind
	if len(raw.ID) == 0 {
		d.ID = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.ID, &s); err == nil {
		d.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.ID, &n); err != nil {
		return err
	}
	d.ID = n.String()
	return nil
}

// SyncState is the persisted singleton cursor record. It is passed into
// and returned from sync explicitly, never held as process state.
type SyncState struct {
	ServerTimestamp int64
	SyncedAt        *time.Time
	EntityCounts    map[string]int
}

// Package analytics answers fixed financial questions over the local cache.
// Every analytic is a read-only computation: base filter (live rows, holds
// excluded, transfers excluded unless the analytic is about them), amounts
// converted to the user's base instrument, results capped and counted.
package analytics

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/config"
	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
	"github.com/jask/zenledger/internal/zenmoney"
)

// Service exposes the analytics. All methods are safe to call concurrently;
// no call mutates the cache.
type Service struct {
	store        *repository.Store
	instruments  *repository.InstrumentRepo
	accounts     *repository.AccountRepo
	tags         *repository.TagRepo
	merchants    *repository.MerchantRepo
	transactions *repository.TransactionRepo
	budgets      *repository.BudgetRepo
	reminders    *repository.ReminderRepo
	markers      *repository.MarkerRepo
	client       zenmoney.Client
	cfg          config.AnalyticsConfig

	now func() time.Time
}

func NewService(db *sql.DB, client zenmoney.Client, cfg config.AnalyticsConfig) *Service {
	return &Service{
		store:        repository.NewStore(db),
		instruments:  repository.NewInstrumentRepo(db),
		accounts:     repository.NewAccountRepo(db),
		tags:         repository.NewTagRepo(db),
		merchants:    repository.NewMerchantRepo(db),
		transactions: repository.NewTransactionRepo(db),
		budgets:      repository.NewBudgetRepo(db),
		reminders:    repository.NewReminderRepo(db),
		markers:      repository.NewMarkerRepo(db),
		client:       client,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ensureSynced distinguishes "never synced" from "synced, nothing found".
func (s *Service) ensureSynced(ctx context.Context) error {
	state, err := s.store.GetSyncState(ctx)
	if err != nil {
		return err
	}
	if state.SyncedAt == nil {
		return apperrors.ErrEmptyCache
	}
	return nil
}

// converter batches base-currency conversion for one analytic call.
// Rows whose instrument has no usable rate are skipped and counted, never
// silently passed through at face value.
type converter struct {
	base        repository.Instrument
	instruments map[int64]repository.Instrument
	skipped     int
}

func (s *Service) newConverter(ctx context.Context) (*converter, error) {
	base, err := s.instruments.Base(ctx)
	if err != nil {
		return nil, err
	}
	byID, err := s.instruments.ByID(ctx)
	if err != nil {
		return nil, err
	}
	return &converter{base: *base, instruments: byID}, nil
}

// toBase converts an amount into the base instrument. The second return is
// false when the rate is missing; the row was counted as skipped.
func (c *converter) toBase(amount float64, instrument int64) (float64, bool) {
	if instrument == c.base.ID {
		return amount, true
	}
	from, ok := c.instruments[instrument]
	if !ok {
		c.skipped++
		return 0, false
	}
	v, err := money.Convert(amount, from, c.base)
	if err != nil {
		c.skipped++
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func capInt(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}

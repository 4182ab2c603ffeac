// Package syncer drives the incremental mirror: it pulls diff pages from
// the remote ledger and lands each one atomically in the local cache.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/zenmoney"
)

// Options controls one sync pass. Full discards the cursor and rebuilds the
// cache from scratch in a single transaction.
type Options struct {
	Full bool
}

// Result summarizes a completed pass.
type Result struct {
	Applied  repository.Applied
	Cursor   int64
	Pages    int
	Duration time.Duration
	Full     bool
}

// Engine owns sync execution. One instance serves the whole process; the
// mutex makes concurrent Sync calls fail fast instead of queueing.
type Engine struct {
	store  *repository.Store
	client zenmoney.Client
	log    *slog.Logger

	mu sync.Mutex
}

func New(store *repository.Store, client zenmoney.Client, log *slog.Logger) *Engine {
	return &Engine{store: store, client: client, log: log}
}

// Sync runs one pass. Incremental mode commits every page with its cursor,
// so an interrupted pass resumes from the last committed page. Full mode
// fetches all pages first and swaps the cache in one transaction.
func (e *Engine) Sync(ctx context.Context, opts Options) (*Result, error) {
	if !e.mu.TryLock() {
		return nil, apperrors.ErrSyncInProgress
	}
	defer e.mu.Unlock()

	start := time.Now()
	if opts.Full {
		res, err := e.fullSync(ctx)
		if err != nil {
			return nil, err
		}
		res.Duration = time.Since(start)
		return res, nil
	}

	state, err := e.store.GetSyncState(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sync state: %w", err)
	}
	cursor := state.ServerTimestamp

	res := &Result{Applied: repository.Applied{
		Upserted: map[repository.Kind]int{},
		Deleted:  map[repository.Kind]int{},
	}}
	for {
		page, err := e.client.FetchDiff(ctx, cursor)
		if err != nil {
			return nil, err
		}
		batch := pageToBatch(page)
		applied, err := e.store.ApplyDiff(ctx, batch)
		if err != nil {
			return nil, err
		}
		cursor = page.ServerTimestamp
		res.Pages++
		mergeApplied(&res.Applied, applied)
		e.log.Debug("applied diff page",
			"page", res.Pages,
			"records", page.Records(),
			"deletions", len(page.Deletions),
			"cursor", cursor)
		if !page.HasMore {
			break
		}
	}
	res.Cursor = cursor
	e.log.Info("sync complete",
		"pages", res.Pages,
		"upserted", total(res.Applied.Upserted),
		"deleted", total(res.Applied.Deleted),
		"cursor", cursor)
	return res, nil
}

func (e *Engine) fullSync(ctx context.Context) (*Result, error) {
	var (
		batches []*repository.Batch
		cursor  int64
		pages   int
	)
	for {
		page, err := e.client.FetchDiff(ctx, cursor)
		if err != nil {
			return nil, err
		}
		batches = append(batches, pageToBatch(page))
		cursor = page.ServerTimestamp
		pages++
		if !page.HasMore {
			break
		}
	}
	applied, err := e.store.ReplaceAll(ctx, batches)
	if err != nil {
		return nil, err
	}
	e.log.Info("full resync complete",
		"pages", pages,
		"upserted", total(applied.Upserted),
		"cursor", cursor)
	return &Result{Applied: applied, Cursor: cursor, Pages: pages, Full: true}, nil
}

func pageToBatch(p *zenmoney.DiffPage) *repository.Batch {
	return &repository.Batch{
		Instruments:     p.Instruments,
		Users:           p.Users,
		Accounts:        p.Accounts,
		Tags:            p.Tags,
		Merchants:       p.Merchants,
		Transactions:    p.Transactions,
		Budgets:         p.Budgets,
		Reminders:       p.Reminders,
		ReminderMarkers: p.ReminderMarkers,
		Deletions:       p.Deletions,
		ServerTimestamp: p.ServerTimestamp,
		SyncedAt:        time.Now().UTC(),
	}
}

func mergeApplied(dst *repository.Applied, src repository.Applied) {
	for k, n := range src.Upserted {
		dst.Upserted[k] += n
	}
	for k, n := range src.Deleted {
		dst.Deleted[k] += n
	}
}

func total(m map[repository.Kind]int) int {
	var n int
	for _, v := range m {
		n += v
	}
	return n
}

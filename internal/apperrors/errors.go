package apperrors

import "errors"

// ErrTransport indicates the remote ledger was unreachable or timed out.
// The sync cursor is unchanged; callers may retry.
var ErrTransport = errors.New("transport error")

// ErrProtocol indicates a malformed diff page from the remote ledger.
// The sync cursor is unchanged.
var ErrProtocol = errors.New("protocol error")

// ErrCacheIntegrity indicates a write failure mid-transaction. The
// transaction was rolled back entirely.
var ErrCacheIntegrity = errors.New("cache integrity error")

// ErrMissingRate indicates a conversion rate is absent or non-positive.
var ErrMissingRate = errors.New("missing exchange rate")

// ErrEmptyCache indicates an analytic was invoked before any successful
// sync, as opposed to a sync that simply matched nothing.
var ErrEmptyCache = errors.New("cache is empty, sync first")

// ErrSyncInProgress indicates another sync pass currently holds the
// single-flight guard.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrNotFound indicates a referenced entity does not exist in the cache.
var ErrNotFound = errors.New("not found")

package analytics

import (
	"context"
	"time"
)

// SyncStatusResult reports the cursor, sync age, and cache population.
type SyncStatusResult struct {
	ServerTimestamp int64          `json:"server_timestamp"`
	LastSyncTime    string         `json:"last_sync_time,omitempty"`
	CacheStats      map[string]int `json:"cache_stats"`
	Staleness       string         `json:"staleness"`
}

// SyncStatus is the one analytic that works on an empty cache: its job is
// to report exactly that. Staleness buckets by the configured thresholds.
func (s *Service) SyncStatus(ctx context.Context) (*SyncStatusResult, error) {
	state, err := s.store.GetSyncState(ctx)
	if err != nil {
		return nil, err
	}
	res := &SyncStatusResult{
		ServerTimestamp: state.ServerTimestamp,
		CacheStats:      state.EntityCounts,
		Staleness:       "never_synced",
	}
	if res.CacheStats == nil {
		res.CacheStats = map[string]int{}
	}
	if state.SyncedAt == nil {
		return res, nil
	}
	res.LastSyncTime = state.SyncedAt.UTC().Format(time.RFC3339)
	age := s.now().Sub(*state.SyncedAt)
	switch {
	case age < time.Duration(s.cfg.StalenessFreshSeconds)*time.Second:
		res.Staleness = "fresh"
	case age < time.Duration(s.cfg.StalenessStaleSeconds)*time.Second:
		res.Staleness = "slightly_stale"
	default:
		res.Staleness = "stale"
	}
	return res, nil
}

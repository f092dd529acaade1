package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/vaultgraph/pkg/cache"
	"github.com/matzehuels/vaultgraph/pkg/observability"
)

// retryBase is the first backoff delay for transient backend errors. Kept
// short: on a hit the saved work is one vault scan, so waiting longer than
// a scan takes would defeat the point.
const retryBase = 50 * time.Millisecond

// Store persists scanned snapshots in a cache, keyed by the vault
// fingerprint, so a restart against an unchanged vault skips the full scan.
// Backend errors marked retryable (Redis network blips) are retried with a
// short backoff before being reported.
type Store struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewStore wraps a cache backend. A nil keyer uses the default key scheme.
func NewStore(c cache.Cache, k cache.Keyer) *Store {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return &Store{cache: c, keyer: k}
}

// Load fetches the snapshot cached for a vault fingerprint. The second
// result is false on a miss.
func (s *Store) Load(ctx context.Context, fingerprint string) (Snapshot, bool, error) {
	key := s.keyer.SnapshotKey(fingerprint)
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, retryBase, func() error {
		var err error
		data, hit, err = s.cache.Get(ctx, key)
		return err
	})
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return Snapshot{}, false, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = s.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return Snapshot{}, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")
	return snap, true, nil
}

// Save caches a snapshot under the vault fingerprint.
func (s *Store) Save(ctx context.Context, fingerprint string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	key := s.keyer.SnapshotKey(fingerprint)
	err = cache.RetryWithBackoff(ctx, retryBase, func() error {
		return s.cache.Set(ctx, key, data, cache.DefaultSnapshotTTL)
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	return nil
}

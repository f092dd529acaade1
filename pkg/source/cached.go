package source

import (
	"context"

	"github.com/charmbracelet/log"
)

// Scanner is the vault-facing side of the cached decorator.
type Scanner interface {
	Scan(ctx context.Context) (Snapshot, error)
	ScanNote(ctx context.Context, label string) (resolved, unresolved map[string]float64, err error)
	Fingerprint() (string, error)
}

// Cached wraps a scanner with a snapshot store. Bulk scans consult the
// store first: when the vault fingerprint matches a cached snapshot the
// vault's note files are not re-read. Single-note scans always hit the
// filesystem since they are already cheap and must see fresh content.
//
// Cache failures degrade to a plain scan; they never fail the caller.
type Cached struct {
	src   Scanner
	store *Store
}

// NewCached wraps src with the given store.
func NewCached(src Scanner, store *Store) *Cached {
	return &Cached{src: src, store: store}
}

// Scan returns the cached snapshot for the current vault fingerprint, or
// scans and caches on a miss.
func (c *Cached) Scan(ctx context.Context) (Snapshot, error) {
	logger := log.FromContext(ctx)

	fp, err := c.src.Fingerprint()
	if err != nil {
		logger.Warn("vault fingerprint failed, scanning uncached", "error", err)
		return c.src.Scan(ctx)
	}

	if snap, hit, err := c.store.Load(ctx, fp); err == nil && hit {
		return snap, nil
	} else if err != nil {
		logger.Warn("snapshot cache load failed", "error", err)
	}

	snap, err := c.src.Scan(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := c.store.Save(ctx, fp, snap); err != nil {
		logger.Warn("snapshot cache save failed", "error", err)
	}
	return snap, nil
}

// ScanNote re-reads a single note, bypassing the cache.
func (c *Cached) ScanNote(ctx context.Context, label string) (map[string]float64, map[string]float64, error) {
	return c.src.ScanNote(ctx, label)
}

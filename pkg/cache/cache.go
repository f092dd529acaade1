// Package cache provides pluggable byte caches and the key scheme used to
// store derived vault artifacts: scanned link snapshots, settled layout
// positions, and rendered exports.
//
// Backends are interchangeable behind the Cache interface: a file cache for
// local CLI use, Redis for the serve mode, and a null cache for tests and
// for disabling caching outright.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact class. Snapshots go stale as soon as the vault
// changes, so they are guarded by the vault fingerprint in the key rather
// than by time; the TTL only bounds garbage accumulation.
const (
	DefaultSnapshotTTL = 7 * 24 * time.Hour
	DefaultLayoutTTL   = 24 * time.Hour
	DefaultExportTTL   = time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get retrieves a value. The second result is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the artifact classes.
type Keyer interface {
	// SnapshotKey keys a scanned link snapshot by the vault fingerprint.
	SnapshotKey(fingerprint string) string

	// LayoutKey keys settled node positions by the snapshot content and
	// the simulation tuning that produced them.
	LayoutKey(snapshotHash string, tuning any) string

	// ExportKey keys a rendered export by graph content and format.
	ExportKey(graphHash, format string) string
}

// DefaultKeyer hashes key components into fixed-width keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for a scanned snapshot.
func (k *DefaultKeyer) SnapshotKey(fingerprint string) string {
	return hashKey("snapshot", fingerprint)
}

// LayoutKey generates a key for settled layout positions.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, tuning any) string {
	return hashKey("layout", snapshotHash, tuning)
}

// ExportKey generates a key for a rendered export.
func (k *DefaultKeyer) ExportKey(graphHash, format string) string {
	return hashKey("export", graphHash, format)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

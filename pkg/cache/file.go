package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores artifacts as files under the vault's cache directory
// (by default <vault>/.vaultgraph/cache). It is the stock backend for a
// single-user vault: scans survive restarts without a server, and clearing
// the cache is deleting a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-backed cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// envelope is the on-disk shape of one artifact: the payload bytes plus the
// absolute expiry derived from the TTL the caller stored with (snapshots
// use DefaultSnapshotTTL, exports DefaultExportTTL). A zero expiry never
// lapses.
type envelope struct {
	Payload []byte    `json:"payload"`
	Expires time.Time `json:"expires,omitempty"`
}

// Get returns the artifact stored under key. Corrupt or lapsed entries are
// removed and reported as a miss, never as an error.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !env.Expires.IsZero() && time.Now().After(env.Expires) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return env.Payload, true, nil
}

// Set stores an artifact under key with the given time-to-live. A zero ttl
// stores without expiry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	env := envelope{Payload: data}
	if ttl > 0 {
		env.Expires = time.Now().Add(ttl)
	}

	encoded, err := json.Marshal(env)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0644)
}

// Delete removes an artifact. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file backend.
func (c *FileCache) Close() error {
	return nil
}

// path maps a key to a file. Keys carry vault scopes and fingerprints, so
// they are hashed rather than used as filenames; the first byte of the
// hash fans entries out across subdirectories to keep any one directory
// small even for vaults with heavy export churn.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+".json")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)

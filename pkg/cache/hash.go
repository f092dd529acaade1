package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a cache key as prefix:sha256(parts). The keyer schemes
// (snapshot, layout, export) all funnel through here so that arbitrary
// inputs - vault fingerprints, tuning structs, graph hashes - collapse to
// fixed-length collision-resistant keys regardless of backend.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the full 64-character hex SHA-256 of data. It doubles as
// the content hash for graph exports and vault scopes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package cache

// ScopedKeyer wraps a Keyer with a prefix so several vaults (or several
// sessions against one shared Redis) get separate cache namespaces.
//
// Example usage:
//
//	// Keys private to one vault
//	vaultKeyer := NewScopedKeyer(NewDefaultKeyer(), "vault:"+Hash([]byte(root))+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SnapshotKey generates a prefixed key for a scanned snapshot.
func (k *ScopedKeyer) SnapshotKey(fingerprint string) string {
	return k.prefix + k.inner.SnapshotKey(fingerprint)
}

// LayoutKey generates a prefixed key for settled layout positions.
func (k *ScopedKeyer) LayoutKey(snapshotHash string, tuning any) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, tuning)
}

// ExportKey generates a prefixed key for a rendered export.
func (k *ScopedKeyer) ExportKey(graphHash, format string) string {
	return k.prefix + k.inner.ExportKey(graphHash, format)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each tenant of a shared
// backend (for example one Redis used by several CI pipelines) its own
// key space.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:main:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey implements [Keyer].
func (k *ScopedKeyer) SnapshotKey(context string, entries []string) string {
	return k.prefix + k.inner.SnapshotKey(context, entries)
}

// ResultKey implements [Keyer].
func (k *ScopedKeyer) ResultKey(snapshotHash, format string) string {
	return k.prefix + k.inner.ResultKey(snapshotHash, format)
}

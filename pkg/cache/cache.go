// Package cache persists build snapshots between runs and provides the
// hashing and retry helpers shared by the builder and source adapters.
//
// Backends:
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for servers and CI fleets
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing
//
// Keys are produced by a [Keyer] so that the same project builds to the same
// key on every backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// SnapshotKey is the key of the build snapshot for a project context
	// and its ordered entry requests.
	SnapshotKey(context string, entries []string) string
	// ResultKey is the key of a rendered artifact for a snapshot.
	ResultKey(snapshotHash, format string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey implements [Keyer].
func (DefaultKeyer) SnapshotKey(context string, entries []string) string {
	return keyOf("snapshot", append([]string{context}, entries...)...)
}

// ResultKey implements [Keyer].
func (DefaultKeyer) ResultKey(snapshotHash, format string) string {
	return "result:" + format + ":" + snapshotHash
}

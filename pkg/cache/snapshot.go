package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/observability"
)

// SnapshotTTL is how long a stored snapshot stays valid by default.
const SnapshotTTL = 7 * 24 * time.Hour

// LoadSnapshot reads the snapshot stored under key. A missing, expired or
// unreadable snapshot is a miss; a snapshot written by another version of
// the format is also treated as a miss.
func LoadSnapshot(ctx context.Context, c Cache, key string) (*graph.Snapshot, bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, false, nil
	}
	snap, err := graph.ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")
	return snap, true, nil
}

// StoreSnapshot writes snap under key.
func StoreSnapshot(ctx context.Context, c Cache, key string, snap *graph.Snapshot, ttl time.Duration) error {
	data, err := graph.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
	return nil
}

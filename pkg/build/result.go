package build

import (
	"time"

	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
)

// Stats summarizes a finished build.
type Stats struct {
	Modules           int
	Dependencies      int // entries included
	Connections       int
	ActiveConnections int
	Reused            int // modules carried over without loading
	Removed           int // connections deactivated by RemoveAvailableModules
	Duration          time.Duration
}

// Result is a finished build.
type Result struct {
	BuildID string
	Graph   *graph.ModuleGraph

	// Errors holds every resolution and load failure, dependencies first,
	// each group in handle order. A build with errors still has a graph.
	Errors errors.List

	Stats Stats

	// Stale and Pruned are only set for incremental builds.
	Stale  []graph.Identity
	Pruned []graph.Identity
}

// Snapshot returns the handle-free record of the build, for persisting and
// for planning the next incremental build.
func (r *Result) Snapshot() *graph.Snapshot {
	return r.Graph.Snapshot()
}

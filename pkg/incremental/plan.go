package incremental

import (
	"cmp"
	"slices"

	"github.com/matzehuels/modgraph/pkg/graph"
)

// Plan is the outcome of comparing a previous build with the current
// sources. The builder consults it through [Plan.Reusable]; a nil *Plan
// reuses nothing.
type Plan struct {
	// Previous is the snapshot the plan was computed from.
	Previous *graph.Snapshot
	// Changed lists previous modules whose content or resolutions differ,
	// plus modules that errored last time.
	Changed []graph.Identity
	// Stale is Changed plus every module that transitively depends on a
	// changed module.
	Stale []graph.Identity

	reusable map[graph.Identity]*graph.SnapshotModule
}

// Reusable returns the previous record of id when the module can be carried
// over without loading it again.
func (p *Plan) Reusable(id graph.Identity) (*graph.SnapshotModule, bool) {
	if p == nil {
		return nil, false
	}
	m, ok := p.reusable[id]
	return m, ok
}

// ReusableCount returns how many previous modules are reusable.
func (p *Plan) ReusableCount() int {
	if p == nil {
		return 0
	}
	return len(p.reusable)
}

// Pruned returns the previous modules that the next build no longer
// contains, because nothing reaches them anymore.
func (p *Plan) Pruned(next *graph.ModuleGraph) []graph.Identity {
	if p == nil || p.Previous == nil {
		return nil
	}
	var pruned []graph.Identity
	for _, m := range p.Previous.Modules {
		if _, ok := next.ModuleByIdentity(m.Identity); !ok {
			pruned = append(pruned, m.Identity)
		}
	}
	slices.SortFunc(pruned, compareIdentity)
	return pruned
}

func compareIdentity(a, b graph.Identity) int {
	return cmp.Compare(a.String(), b.String())
}

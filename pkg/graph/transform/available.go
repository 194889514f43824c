package transform

import (
	"maps"

	"github.com/matzehuels/modgraph/pkg/graph"
)

type moduleSet map[graph.ModuleID]struct{}

func (s moduleSet) has(m graph.ModuleID) bool {
	_, ok := s[m]
	return ok
}

// blockKey identifies a loading block: the static closure of an entry
// target, or of the target of a dynamic import.
type blockKey struct {
	root  graph.ModuleID
	async bool
}

type block struct {
	members  moduleSet
	children []graph.ModuleID // roots of async blocks imported from members
	avail    moduleSet        // nil until first reached
}

// RemoveAvailableModules deactivates connections whose target is already
// loaded by the time the origin module runs, and returns how many were
// deactivated.
//
// Modules are grouped into blocks: one per entry and one per dynamic
// import target, each holding the static closure (static and require
// connections) of its root. A block's available set is the intersection,
// over every block that dynamically imports it, of what that parent had
// available plus the parent's own members. A connection from module M to
// target T is redundant when T is available in every block M belongs to.
// Entry connections are never touched.
//
// Every connection is reactivated first, so the result depends only on the
// current graph and not on decisions made by an earlier build. Nothing is
// removed: a later call, or [graph.Store.ReactivateAll], restores every
// edge.
//
// # Algorithm
//
// Block membership is a breadth-first walk per block root. Available sets
// are computed with a worklist that starts from the entry blocks and only
// ever shrinks a set after its first assignment, so cyclic dynamic imports
// reach a fixed point.
//
// # Performance
//
// Time is O(B·(V+E)) for B blocks over V modules and E connections; in
// typical code-split applications B is small compared to V.
func RemoveAvailableModules(s *graph.Store) int {
	s.ReactivateAll()

	blocks := make(map[blockKey]*block)
	contexts := make(map[graph.ModuleID][]blockKey)

	var order []blockKey
	var ensure func(key blockKey) *block
	ensure = func(key blockKey) *block {
		if b, ok := blocks[key]; ok {
			return b
		}
		b := &block{members: closure(s, key.root)}
		blocks[key] = b
		order = append(order, key)
		for m := range b.members {
			contexts[m] = append(contexts[m], key)
			forEachConnection(s, m, func(c graph.Connection, kind graph.Kind) {
				if kind.IsAsync() {
					b.children = append(b.children, c.Target)
				}
			})
		}
		return b
	}

	var roots []blockKey
	for _, d := range s.Entries() {
		if c, ok := s.Connection(d); ok {
			key := blockKey{root: c.Target}
			ensure(key).avail = moduleSet{}
			roots = append(roots, key)
		}
	}

	queue := append([]blockKey(nil), roots...)
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		parent := blocks[key]

		offer := maps.Clone(parent.avail)
		maps.Copy(offer, parent.members)

		for _, root := range parent.children {
			childKey := blockKey{root: root, async: true}
			child := ensure(childKey)
			if next, changed := intersect(child.avail, offer); changed {
				child.avail = next
				queue = append(queue, childKey)
			}
		}
	}

	removed := 0
	for m, keys := range contexts {
		forEachConnection(s, m, func(c graph.Connection, _ graph.Kind) {
			for _, k := range keys {
				if avail := blocks[k].avail; avail == nil || !avail.has(c.Target) {
					return
				}
			}
			if s.DeactivateConnection(c.Dependency) == nil {
				removed++
			}
		})
	}
	return removed
}

// closure returns root plus every module reachable from it through
// non-async connections.
func closure(s *graph.Store, root graph.ModuleID) moduleSet {
	seen := moduleSet{root: {}}
	queue := []graph.ModuleID{root}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		forEachConnection(s, m, func(c graph.Connection, kind graph.Kind) {
			if kind.IsAsync() || seen.has(c.Target) {
				return
			}
			seen[c.Target] = struct{}{}
			queue = append(queue, c.Target)
		})
	}
	return seen
}

func forEachConnection(s *graph.Store, m graph.ModuleID, fn func(graph.Connection, graph.Kind)) {
	mod, ok := s.Module(m)
	if !ok {
		return
	}
	for _, d := range mod.Dependencies {
		c, ok := s.Connection(d)
		if !ok {
			continue
		}
		dep, _ := s.Dependency(d)
		fn(c, dep.Kind)
	}
}

// intersect narrows current by offer. A nil current means "not reached yet"
// and adopts offer whole.
func intersect(current, offer moduleSet) (moduleSet, bool) {
	if current == nil {
		return maps.Clone(offer), true
	}
	changed := false
	next := make(moduleSet, len(current))
	for m := range current {
		if offer.has(m) {
			next[m] = struct{}{}
		} else {
			changed = true
		}
	}
	return next, changed
}

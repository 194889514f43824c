package graph

import (
	"cmp"
	"slices"
)

// Compact returns a copy of s whose handles are assigned in canonical
// order: entries first, then a breadth-first walk that visits each module's
// dependencies in source order. The walk follows every connection, active
// or not.
//
// Handles issued while workers race depend on completion order; handles
// after Compact depend only on the shape of the graph. Two builds of the
// same input therefore agree on every ModuleID and DependencyID regardless
// of parallelism.
//
// Records that the walk cannot reach are appended afterwards, ordered by
// identity. Compact runs in O(modules + dependencies).
func (s *Store) Compact() *Store {
	modOrder := make([]ModuleID, 0, len(s.modules))
	depOrder := make([]DependencyID, 0, len(s.deps))
	modSeen := make([]bool, len(s.modules))
	depSeen := make([]bool, len(s.deps))

	visitDep := func(d DependencyID) {
		depSeen[d] = true
		depOrder = append(depOrder, d)
		if c := s.conns[d]; c != nil && !modSeen[c.Target] {
			modSeen[c.Target] = true
			modOrder = append(modOrder, c.Target)
		}
	}

	for _, d := range s.entries {
		visitDep(d)
	}
	for head := 0; head < len(modOrder); head++ {
		for _, d := range s.modules[modOrder[head]].Dependencies {
			visitDep(d)
		}
	}

	if len(modOrder) < len(s.modules) {
		var rest []ModuleID
		for id := range s.modules {
			if !modSeen[id] {
				rest = append(rest, ModuleID(id))
			}
		}
		slices.SortFunc(rest, func(a, b ModuleID) int {
			return cmp.Compare(s.modules[a].Identity.String(), s.modules[b].Identity.String())
		})
		for _, m := range rest {
			modOrder = append(modOrder, m)
			for _, d := range s.modules[m].Dependencies {
				if !depSeen[d] {
					depSeen[d] = true
					depOrder = append(depOrder, d)
				}
			}
		}
	}

	modMap := make([]ModuleID, len(s.modules))
	for newID, old := range modOrder {
		modMap[old] = ModuleID(newID)
	}
	depMap := make([]DependencyID, len(s.deps))
	for newID, old := range depOrder {
		depMap[old] = DependencyID(newID)
	}
	remapModule := func(id ModuleID) ModuleID {
		if id == NoModule {
			return NoModule
		}
		return modMap[id]
	}

	out := &Store{
		modules:    make([]*Module, len(modOrder)),
		deps:       make([]*Dependency, len(depOrder)),
		conns:      make([]*Connection, len(depOrder)),
		inbound:    make([][]DependencyID, len(modOrder)),
		byIdentity: make(map[Identity]ModuleID, len(modOrder)),
		depKeys:    make(map[depKey]DependencyID, len(depOrder)),
	}

	for newID, old := range modOrder {
		m := *s.modules[old]
		m.ID = ModuleID(newID)
		m.Dependencies = make([]DependencyID, len(m.Dependencies))
		for i, d := range s.modules[old].Dependencies {
			m.Dependencies[i] = depMap[d]
		}
		out.modules[newID] = &m
		out.byIdentity[m.Identity] = m.ID
	}

	for newID, old := range depOrder {
		d := *s.deps[old]
		d.ID = DependencyID(newID)
		d.Origin = remapModule(d.Origin)
		out.deps[newID] = &d
		out.depKeys[depKey{origin: d.Origin, index: d.Index}] = d.ID
		if d.Origin == NoModule {
			out.entries = append(out.entries, d.ID)
		}

		if c := s.conns[old]; c != nil {
			nc := Connection{
				Dependency: d.ID,
				Origin:     d.Origin,
				Target:     modMap[c.Target],
				Active:     c.Active,
			}
			out.conns[newID] = &nc
			out.inbound[nc.Target] = append(out.inbound[nc.Target], d.ID)
		}
	}

	return out
}

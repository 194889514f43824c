package graph

// ModuleGraph is the read-only query view of a finished build.
//
// A ModuleGraph is only handed out once the build that populated its
// store has reached quiescence, so queries never observe concurrent
// mutation. Every per-module query costs O(out-degree) or O(in-degree).
//
// ModuleGraph is safe for concurrent reads.
type ModuleGraph struct {
	store *Store
}

// Seal wraps s in a read-only view. The caller must not mutate s afterwards.
func Seal(s *Store) *ModuleGraph {
	return &ModuleGraph{store: s}
}

// ConnectionByDependency returns the active connection of dependency.
// It returns false if the dependency is unresolved, failed, or its
// connection has been deactivated.
func (g *ModuleGraph) ConnectionByDependency(dependency DependencyID) (Connection, bool) {
	c, ok := g.store.Connection(dependency)
	if !ok || !c.Active {
		return Connection{}, false
	}
	return c, true
}

// ModuleByDependency returns the module that dependency's active connection
// targets.
func (g *ModuleGraph) ModuleByDependency(dependency DependencyID) (Module, bool) {
	c, ok := g.ConnectionByDependency(dependency)
	if !ok {
		return Module{}, false
	}
	return g.store.Module(c.Target)
}

// ResolvedModule returns the module dependency resolved to, even when the
// connection has been deactivated by an optimization.
func (g *ModuleGraph) ResolvedModule(dependency DependencyID) (Module, bool) {
	c, ok := g.store.Connection(dependency)
	if !ok {
		return Module{}, false
	}
	return g.store.Module(c.Target)
}

// OutgoingConnections returns the active connections that originate in
// module, keyed by dependency. Use it for membership checks; iteration
// order is unspecified.
func (g *ModuleGraph) OutgoingConnections(module ModuleID) map[DependencyID]Connection {
	if !g.store.hasModule(module) {
		return nil
	}
	deps := g.store.modules[module].Dependencies
	out := make(map[DependencyID]Connection, len(deps))
	for _, d := range deps {
		if c := g.store.conns[d]; c != nil && c.Active {
			out[d] = *c
		}
	}
	return out
}

// OrderedOutgoingConnections returns the active connections that originate
// in module, ordered by the source position of their dependency. The order
// is fixed when the dependencies are created and never depends on which
// resolution finished first.
func (g *ModuleGraph) OrderedOutgoingConnections(module ModuleID) []Connection {
	if !g.store.hasModule(module) {
		return nil
	}
	deps := g.store.modules[module].Dependencies
	out := make([]Connection, 0, len(deps))
	for _, d := range deps {
		if c := g.store.conns[d]; c != nil && c.Active {
			out = append(out, *c)
		}
	}
	return out
}

// IncomingConnections returns the active connections that target module.
// The order carries no meaning.
func (g *ModuleGraph) IncomingConnections(module ModuleID) []Connection {
	if !g.store.hasModule(module) {
		return nil
	}
	in := g.store.inbound[module]
	out := make([]Connection, 0, len(in))
	for _, d := range in {
		if c := g.store.conns[d]; c.Active {
			out = append(out, *c)
		}
	}
	return out
}

// EntryConnections returns the active connections of the entry
// dependencies, in entry order.
func (g *ModuleGraph) EntryConnections() []Connection {
	out := make([]Connection, 0, len(g.store.entries))
	for _, d := range g.store.entries {
		if c := g.store.conns[d]; c != nil && c.Active {
			out = append(out, *c)
		}
	}
	return out
}

// Module returns the module record for id.
func (g *ModuleGraph) Module(id ModuleID) (Module, bool) { return g.store.Module(id) }

// Dependency returns the dependency record for id.
func (g *ModuleGraph) Dependency(id DependencyID) (Dependency, bool) {
	return g.store.Dependency(id)
}

// ModuleByIdentity looks a module up by its stable identity.
func (g *ModuleGraph) ModuleByIdentity(identity Identity) (Module, bool) {
	id, ok := g.store.ModuleByIdentity(identity)
	if !ok {
		return Module{}, false
	}
	return g.store.Module(id)
}

// Modules returns every module in handle order.
func (g *ModuleGraph) Modules() []Module {
	out := make([]Module, len(g.store.modules))
	for i, m := range g.store.modules {
		out[i] = *m
	}
	return out
}

// Dependencies returns every dependency, entries included, in handle order.
func (g *ModuleGraph) Dependencies() []Dependency {
	out := make([]Dependency, len(g.store.deps))
	for i, d := range g.store.deps {
		out[i] = *d
	}
	return out
}

// ModuleIDs returns the handles of all modules.
func (g *ModuleGraph) ModuleIDs() []ModuleID {
	ids := make([]ModuleID, len(g.store.modules))
	for i := range ids {
		ids[i] = ModuleID(i)
	}
	return ids
}

// DependencyIDs returns the handles of all dependencies.
func (g *ModuleGraph) DependencyIDs() []DependencyID {
	ids := make([]DependencyID, len(g.store.deps))
	for i := range ids {
		ids[i] = DependencyID(i)
	}
	return ids
}

// Entries returns the entry dependencies in entry order.
func (g *ModuleGraph) Entries() []Dependency {
	out := make([]Dependency, len(g.store.entries))
	for i, d := range g.store.entries {
		out[i] = *g.store.deps[d]
	}
	return out
}

// ModuleCount returns the number of modules.
func (g *ModuleGraph) ModuleCount() int { return g.store.ModuleCount() }

// DependencyCount returns the number of dependencies.
func (g *ModuleGraph) DependencyCount() int { return g.store.DependencyCount() }

// ConnectionCount returns the number of connections, active or not.
func (g *ModuleGraph) ConnectionCount() int { return g.store.ConnectionCount() }

// ActiveConnectionCount returns the number of active connections.
func (g *ModuleGraph) ActiveConnectionCount() int {
	n := 0
	for _, c := range g.store.conns {
		if c != nil && c.Active {
			n++
		}
	}
	return n
}

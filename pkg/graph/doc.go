// Package graph holds the module dependency graph of a bundler build.
//
// # Overview
//
// Three entities make up the graph:
//
//   - [Module]: a resolved, loaded source unit
//   - [Dependency]: one import/require occurrence inside a module, or a
//     synthetic entry dependency with no owning module
//   - [Connection]: the resolved edge from a dependency to its target module
//
// Records live in dense arenas owned by a [Store] and refer to each other
// only through [ModuleID] and [DependencyID] handles. Cycles, self-imports
// included, are ordinary data.
//
// # Building
//
// The store is mutated by exactly one goroutine (see package build):
//
//	s := graph.NewStore()
//	entry, _ := s.CreateDependency(graph.NoModule, 0, "./a.js", graph.KindEntry)
//	a, _, _ := s.CreateModule(graph.Identity{Path: "/src/a.js"})
//	_ = s.SetConnection(entry, a)
//
// Every mutation validates its invariants and returns an
// INVARIANT_VIOLATION error without touching the store when one would
// break. Repeating a mutation with identical arguments is a no-op.
//
// # Querying
//
// [Seal] turns a finished store into a [ModuleGraph], the read-only query
// view handed to downstream stages. Per-module queries cost O(degree):
//
//   - [ModuleGraph.ConnectionByDependency] and [ModuleGraph.ModuleByDependency]
//   - [ModuleGraph.OutgoingConnections] (set view)
//   - [ModuleGraph.OrderedOutgoingConnections] (source order)
//   - [ModuleGraph.IncomingConnections] (reverse edges)
//
// Connections can be deactivated by optimizations without being removed.
// Inactive connections are invisible to the queries above but kept in the
// store, so deactivation is reversible.
//
// # Determinism
//
// Outgoing order is keyed by each dependency's source-position index,
// fixed when the dependency is created. [Store.Compact] renumbers handles
// canonically, so the handles themselves are independent of worker
// scheduling too.
//
// # Snapshots
//
// [ModuleGraph.Snapshot] produces a handle-free [Snapshot] keyed by module
// [Identity]. Snapshots feed incremental rebuilds and serialize to JSON
// with [WriteSnapshot] / [ReadSnapshot].
package graph

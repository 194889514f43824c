// Package transform provides optimization passes over a finished module
// graph store.
//
// # Overview
//
// Passes in this package never delete records. They change connection
// activity only, so downstream stages see a smaller graph while the store
// keeps enough information to undo every decision on the next build.
//
// # Remove Available Modules
//
// [RemoveAvailableModules] deactivates a connection when its target is
// guaranteed to be loaded already whenever the origin module runs: the
// target belongs to the entry block, or to every block that dynamically
// imports the origin's block. Without the pass, downstream chunking would
// include such modules twice.
//
//	removed := transform.RemoveAvailableModules(store)
//
// The pass starts by reactivating every connection, so its decisions are
// recomputed from scratch on each build instead of being carried across
// incremental rebuilds.
package transform

// Package build constructs module graphs concurrently.
//
// A [Builder] starts from a list of entry requests and drives a
// [source.Adapter] until every reachable module is resolved and loaded:
//
//	b := build.New(adapter)
//	res, err := b.Build(ctx, []string{"./src/index.js"}, build.Options{
//	    Parallelism: 8,
//	})
//	if err != nil {
//	    return err // aborted: canceled, bailed, or an invariant broke
//	}
//	for _, e := range res.Errors {
//	    fmt.Println(e) // per-module failures; the graph is still usable
//	}
//
// # Concurrency
//
// A bounded pool of worker goroutines performs adapter calls, the only
// blocking operations of a build. A single collector goroutine owns the
// [graph.Store]: it hands jobs to workers, commits their results, and
// dedupes modules by identity, so each module is loaded at most once no
// matter how many dependencies point at it. Cycles therefore terminate:
// the second visit of a module is a dedupe hit.
//
// The build finishes when no job is queued or in flight. The store is then
// compacted, which renumbers every handle in a canonical order, optionally
// passed through [transform.RemoveAvailableModules], and sealed into a
// read-only [graph.ModuleGraph]. Handles, dependency order and error order
// are identical for any Parallelism.
//
// # Module states
//
// Fresh modules go Discovered → Loading → Linking → Built. A module is
// Built once each of its own dependencies is resolved or failed; its
// targets may still be loading. Modules carried over from a previous build
// by an [incremental.Plan] go Discovered → Resolving → Linking → Built and
// are never loaded. A failed load leaves the module Errored.
//
// # Hooks
//
// Process-wide hooks from [observability.Build] and Options.Hooks run in
// that order on the collector goroutine, never concurrently with a store
// mutation.
package build

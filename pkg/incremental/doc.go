// Package incremental decides which modules of a previous build can be
// reused by the next one.
//
// A [Controller] reads the [graph.Snapshot] of the previous build and
// revalidates every module that was built: the content fingerprint must be
// unchanged and every request must still resolve to the same target.
// Checks run in parallel through the same source adapter the builder uses.
//
// Modules that fail revalidation are changed; changed modules and every
// module that transitively imports one are stale. The resulting [Plan] is
// handed to the builder, which links reusable modules from their previous
// record instead of loading them:
//
//	plan, err := incremental.NewController(adapter, incremental.Options{}).Plan(ctx, prev)
//	if err != nil {
//	    return err
//	}
//	res, err := build.New(adapter).Build(ctx, entries, build.Options{Reuse: plan})
//
// Connection deactivations made by RemoveAvailableModules are not part of
// what is reused. Every build starts with all connections active and
// recomputes them.
package incremental

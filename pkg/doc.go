// Package pkg provides the core libraries for modgraph, a module dependency
// graph builder for JavaScript and TypeScript projects.
//
// # Overview
//
// modgraph starts from one or more entry requests, resolves every import,
// dynamic import and require it finds, and links the results into a graph of
// modules, dependencies and connections. The pkg directory is organized into
// four areas:
//
//  1. [graph] - Entity store, sealed query engine and snapshots
//  2. [source] and [build] - Resolution/parse adapter and concurrent builder
//  3. [incremental] and [cache] - Reuse of unchanged modules across builds
//  4. [pipeline] and [api] - Orchestration and the HTTP query surface
//
// # Architecture
//
// The typical data flow:
//
//	Entry requests
//	     ↓
//	[incremental] (revalidate the previous snapshot, optional)
//	     ↓
//	[build] (parallel resolve + load, single-writer store)
//	     ↓
//	[graph/transform] (connection optimizations)
//	     ↓
//	[graph] sealed ModuleGraph
//	     ↓
//	[render/nodelink] / [api] / snapshot JSON
//
// # Quick Start
//
//	adapter, err := source.NewFS(os.DirFS(root), "/")
//	if err != nil {
//	    return err
//	}
//	res, err := build.New(adapter).Build(ctx, []string{"./src/index.js"}, build.Options{})
//	if err != nil {
//	    return err
//	}
//	m, _ := res.Graph.ModuleByIdentity(graph.Identity{Path: "/src/index.js", Variant: source.VariantAuto})
//	for _, c := range res.Graph.OrderedOutgoingConnections(m.ID) {
//	    fmt.Println(c.Dependency, "->", c.Target)
//	}
//
// # Main Packages
//
// [graph] - Handle-based store for modules, dependencies and connections,
// plus the read-only [graph.ModuleGraph] that answers queries after a build.
// [graph/transform] holds optimizations that deactivate connections.
//
// [source] - The adapter contract between the builder and the outside
// world, with a filesystem implementation that resolves relative requests
// and scans import statements.
//
// [build] - Bounded worker pool that resolves and loads modules in parallel
// while a single collector goroutine owns the store.
//
// [incremental] - Plans which modules of a previous snapshot can be reused.
//
// [cache] - File, Redis, MongoDB and in-memory backends for snapshots and
// rendered artifacts.
//
// [pipeline] - Plan, build and render in one call. Used by both the CLI and
// the API server.
//
// [api] - chi-based HTTP server exposing the query engine as JSON.
//
// [observability] - Hooks for build and HTTP events.
//
// [errors] - Error codes shared by every package.
//
// # Testing
//
//	go test ./...
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/graph
// [graph/transform]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/graph/transform
// [source]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/source
// [build]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/build
// [incremental]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/incremental
// [cache]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/api
// [observability]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/errors
//
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/modgraph/pkg/render/nodelink
package pkg

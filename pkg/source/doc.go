// Package source is the boundary between the graph builder and the code it
// builds from.
//
// The builder never touches files itself. It asks a [Resolver] to turn a
// request string into a module [graph.Identity] and a [Loader] to produce a
// module's fingerprint and ordered dependency requests. Both are called from
// many worker goroutines at once.
//
// [FS] is the stock adapter. It reads JavaScript, TypeScript and JSON
// sources from any [io/fs.FS] (os.DirFS for real projects, fstest.MapFS in
// tests), follows node-style resolution rules, and memoizes resolutions in
// a bounded LRU cache that the builder clears at the start of every build.
//
// [Scan] is the request extractor used by [FS]. It recognizes
//
//	import x from "./a"         static
//	import "./a"                static
//	export { x } from "./a"     static
//	import("./a")               dynamic
//	require("./a")              require
//
// and reports them in source order. It is a lexical scanner, not a parser:
// requests built from expressions are ignored.
package source

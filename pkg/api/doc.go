// Package api serves a built module graph over HTTP.
//
// The API is read-only. Every endpoint maps onto one query of
// [graph.ModuleGraph]:
//
//	GET /modules                   all modules (filter with ?path= and ?variant=)
//	GET /modules/{id}              one module
//	GET /modules/{id}/outgoing     active outgoing connections (?ordered=true for source order)
//	GET /modules/{id}/incoming     active incoming connections
//	GET /dependencies/{id}         a dependency with its connection and resolved module
//	GET /errors                    resolution and load failures of the build
//	GET /stats                     build statistics
//	GET /health                    liveness
//
// Handles in URLs are the numeric module and dependency IDs of the build.
// Errors are JSON objects with the error code and a message.
package api

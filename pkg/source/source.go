package source

import (
	"context"
	"errors"

	"github.com/matzehuels/modgraph/pkg/graph"
)

// ErrModuleNotFound is returned by resolvers when no file matches a request.
var ErrModuleNotFound = errors.New("module not found")

// Request is one raw dependency request extracted from module source.
type Request struct {
	Specifier string     // the string inside the import/require
	Index     int        // source-position index, dense from 0
	Kind      graph.Kind // static, dynamic or require
}

// Loaded is the result of loading a module.
type Loaded struct {
	Fingerprint string    // content hash of the source bytes
	Requests    []Request // ordered by Index
}

// Resolver maps a request string to a module identity.
type Resolver interface {
	// Resolve resolves request as issued from origin. origin is the zero
	// Identity for entry requests, which resolve against the build context.
	// Implementations must be safe for concurrent use.
	Resolve(ctx context.Context, request string, origin graph.Identity) (graph.Identity, error)
}

// Loader reads and parses modules.
type Loader interface {
	// Load returns the fingerprint and ordered dependency requests of the
	// module. Implementations must be safe for concurrent use.
	Load(ctx context.Context, id graph.Identity) (*Loaded, error)
}

// Adapter is the collaborator the builder drives: a resolver and a loader.
type Adapter interface {
	Resolver
	Loader
}

// Fingerprinter is implemented by loaders that can hash content without
// parsing it. The incremental controller prefers it over Load.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, id graph.Identity) (string, error)
}

// Invalidator is implemented by adapters that memoize results. The builder
// calls Invalidate at the start of every build so memoized answers never
// outlive the build that produced them.
type Invalidator interface {
	Invalidate()
}

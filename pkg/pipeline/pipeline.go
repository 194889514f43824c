// Package pipeline runs the complete plan → build → render flow shared by
// the CLI and the API server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Plan: read the previous snapshot from the cache and decide which
//     modules can be reused (incremental runs only)
//  2. Build: construct the module graph from the entry requests
//  3. Render: produce the requested artifacts (DOT, SVG, snapshot JSON)
//
// The snapshot of every incremental run is written back to the cache so
// the next invocation can plan against it.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Root:        "/home/me/app",
//	    Entries:     []string{"./src/index.js"},
//	    Incremental: true,
//	    Formats:     []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/cache"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/observability"
)

// DefaultContext is the module path entry requests resolve against.
const DefaultContext = "/"

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Project
	Root    string   `json:"root"`              // Directory on disk holding the project
	Context string   `json:"context,omitempty"` // Module path within Root (default "/")
	Entries []string `json:"entries"`

	// Build
	Parallelism            int  `json:"parallelism,omitempty"`
	Bail                   bool `json:"bail,omitempty"`
	RemoveAvailableModules bool `json:"remove_available_modules,omitempty"`
	Incremental            bool `json:"incremental,omitempty"`
	Refresh                bool `json:"refresh,omitempty"` // Ignore the stored snapshot but still replace it

	// Render
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Inactive bool     `json:"inactive,omitempty"`

	// Runtime options (not serialized)

	// Previous, when set, is planned against instead of the cached
	// snapshot. The serve loop passes the graph it is serving.
	Previous    *graph.Snapshot            `json:"-"`
	SnapshotTTL time.Duration              `json:"-"`
	Hooks       []observability.BuildHooks `json:"-"`
	Logger      *log.Logger                `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Build is the finished build, including its graph and errors.
	Build *build.Result

	// SnapshotKey is the cache key the snapshot is stored under.
	SnapshotKey string

	// SnapshotHash is the content hash of the serialized snapshot.
	SnapshotHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PlanTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // A previous snapshot was found and planned against
	Reused      int  // Modules carried over from it
	RenderHit   bool // Every artifact came from the cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Root == "" {
		return errors.New(errors.ErrCodeInvalidInput, "project root is required")
	}
	if o.Context == "" {
		o.Context = DefaultContext
	}
	if err := errors.ValidateContext(o.Context); err != nil {
		return err
	}
	if err := errors.ValidateEntries(o.Entries); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.SnapshotTTL == 0 {
		o.SnapshotTTL = cache.SnapshotTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// BuildOptions converts pipeline options to builder options.
func (o Options) BuildOptions() build.Options {
	return build.Options{
		Parallelism:            o.Parallelism,
		Bail:                   o.Bail,
		RemoveAvailableModules: o.RemoveAvailableModules,
		Hooks:                  o.Hooks,
		Logger:                 o.Logger,
	}
}

// resultFormat is the cache component of an artifact key. Render options
// that change the output are part of it.
func (o Options) resultFormat(format string) string {
	if format == FormatJSON {
		return format
	}
	return fmt.Sprintf("%s:d=%t:i=%t", format, o.Detailed, o.Inactive)
}

package build

import (
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modgraph/pkg/incremental"
	"github.com/matzehuels/modgraph/pkg/observability"
)

const (
	DefaultRetries    = 3                      // Attempts per adapter call for retryable errors
	DefaultRetryDelay = 100 * time.Millisecond // First backoff delay, doubled per attempt
)

// Options configures a build.
type Options struct {
	Parallelism            int                        // Concurrent adapter calls (default: runtime.NumCPU())
	Bail                   bool                       // Abort on the first resolution or load failure
	RemoveAvailableModules bool                       // Deactivate connections to already-loaded modules
	Reuse                  *incremental.Plan          // Modules carried over from a previous build (optional)
	Retries                int                        // Attempts per adapter call (default: 3)
	RetryDelay             time.Duration              // First retry delay (default: 100ms)
	Hooks                  []observability.BuildHooks // Run after the process-wide hooks, in order
	Logger                 *log.Logger                // default: log.Default()
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/cache"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/incremental"
	"github.com/matzehuels/modgraph/pkg/render/nodelink"
	"github.com/matzehuels/modgraph/pkg/source"
)

// Snapshot writes are retried when the backend reports a transient failure.
const (
	storeAttempts = 3
	storeDelay    = 200 * time.Millisecond
)

// AdapterFunc creates the source adapter for a run.
type AdapterFunc func(opts Options) (source.Adapter, error)

// DirAdapter reads the project from opts.Root on the local filesystem.
func DirAdapter(opts Options) (source.Adapter, error) {
	return source.NewFS(os.DirFS(opts.Root), opts.Context)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Adapter AdapterFunc
	Logger  *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Adapter: DirAdapter,
		Logger:  logger,
	}
}

// SnapshotKey returns the cache key of the snapshot for opts.
func (r *Runner) SnapshotKey(opts Options) string {
	return r.Keyer.SnapshotKey(filepath.Clean(opts.Root)+":"+opts.Context, opts.Entries)
}

// Execute runs the complete plan → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	adapter, err := r.Adapter(opts)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	result := &Result{
		SnapshotKey: r.SnapshotKey(opts),
		Artifacts:   make(map[string][]byte),
	}

	// Stage 1: Plan
	planStart := time.Now()
	plan, err := r.Plan(ctx, adapter, result.SnapshotKey, opts)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Stats.PlanTime = time.Since(planStart)
	result.CacheInfo.SnapshotHit = plan != nil
	result.CacheInfo.Reused = plan.ReusableCount()

	// Stage 2: Build
	buildOpts := opts.BuildOptions()
	buildOpts.Reuse = plan
	res, err := build.New(adapter).Build(ctx, opts.Entries, buildOpts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Build = res
	result.Stats.BuildTime = res.Stats.Duration

	r.Logger.Info("built module graph",
		"modules", res.Stats.Modules,
		"connections", res.Stats.Connections,
		"reused", res.Stats.Reused,
		"errors", len(res.Errors),
		"duration", res.Stats.Duration)

	snap := res.Snapshot()
	snap.Context = opts.Context
	data, err := graph.MarshalSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	result.SnapshotHash = cache.Hash(data)

	if opts.Incremental {
		err := cache.Retry(ctx, storeAttempts, storeDelay, func() error {
			return cache.StoreSnapshot(ctx, r.Cache, result.SnapshotKey, snap, opts.SnapshotTTL)
		})
		if err != nil {
			r.Logger.Warn("snapshot not stored", "key", result.SnapshotKey, "error", err)
		}
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res.Graph, result.SnapshotHash, data, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	if len(opts.Formats) > 0 {
		r.Logger.Debug("rendered outputs",
			"formats", opts.Formats,
			"cached", renderHit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Plan revalidates the previous build: opts.Previous when given, else the
// snapshot stored under key. It returns nil when the run is not
// incremental, when Refresh is set or when no usable snapshot exists.
// Cache failures degrade to a full build.
func (r *Runner) Plan(ctx context.Context, adapter source.Adapter, key string, opts Options) (*incremental.Plan, error) {
	if !opts.Incremental || opts.Refresh {
		return nil, nil
	}

	prev := opts.Previous
	if prev == nil {
		var (
			hit bool
			err error
		)
		prev, hit, err = cache.LoadSnapshot(ctx, r.Cache, key)
		if err != nil {
			r.Logger.Warn("snapshot lookup failed, building from scratch", "key", key, "error", err)
			return nil, nil
		}
		if !hit {
			r.Logger.Debug("no previous snapshot", "key", key)
			return nil, nil
		}
	}
	if prev.Context != opts.Context {
		r.Logger.Debug("snapshot context differs, ignoring", "snapshot", prev.Context, "context", opts.Context)
		return nil, nil
	}

	return incremental.NewController(adapter, incremental.Options{
		Parallelism: opts.Parallelism,
		Logger:      opts.Logger,
	}).Plan(ctx, prev)
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. snapshotHash keys the artifacts; snapshotJSON is the serialized
// snapshot served as the json format.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.ModuleGraph, snapshotHash string, snapshotJSON []byte, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	for _, format := range opts.Formats {
		key := r.Keyer.ResultKey(snapshotHash, opts.resultFormat(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[format] = data
			continue
		}
		allCached = false

		data, err := Render(ctx, g, snapshotJSON, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, opts.SnapshotTTL); err != nil {
			r.Logger.Debug("artifact not cached", "format", format, "error", err)
		}
	}

	return artifacts, allCached && len(opts.Formats) > 0, nil
}

// Render produces a single artifact without consulting the cache.
func Render(ctx context.Context, g *graph.ModuleGraph, snapshotJSON []byte, format string, opts Options) ([]byte, error) {
	dotOpts := nodelink.Options{Detailed: opts.Detailed, Inactive: opts.Inactive}
	switch format {
	case FormatDOT:
		return []byte(nodelink.ToDOT(g, dotOpts)), nil
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, dotOpts))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return svg, nil
	case FormatJSON:
		return snapshotJSON, nil
	default:
		return nil, ValidateFormat(format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

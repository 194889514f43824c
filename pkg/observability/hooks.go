// Package observability provides lifecycle hooks for builds, snapshot cache
// operations and the query API.
//
// Hooks let external code observe a build without the builder depending on
// any metrics or tracing backend. Registrations are ordered: hooks run in
// the order they were added, synchronously, at fixed points of the build.
// The builder calls them from its collector goroutine between graph
// mutations, so a hook never observes a half-applied change.
//
// # Usage
//
// Register process-wide hooks at startup:
//
//	func main() {
//	    observability.AddBuildHooks(&myBuildHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// The builder emits events:
//
//	observability.Build().OnBuildStart(ctx, BuildStart{ID: id, Entries: entries})
//	// ... per module ...
//	observability.Build().OnModuleBuilt(ctx, ModuleBuilt{Module: path})
//	observability.Build().OnBuildComplete(ctx, BuildComplete{Modules: n})
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildStart is emitted before the first entry is resolved.
type BuildStart struct {
	ID          string
	Entries     []string
	Parallelism int
	Incremental bool
}

// ModuleBuilt is emitted once per module when it reaches a terminal state
// (built or errored).
type ModuleBuilt struct {
	BuildID      string
	Module       string // canonical identity string
	Dependencies int
	Reused       bool
	Err          error
}

// BuildComplete is emitted after the graph is sealed, or after an abort.
type BuildComplete struct {
	ID          string
	Modules     int
	Connections int
	Errors      int
	Duration    time.Duration
	Err         error
}

// BuildHooks receives build lifecycle events.
type BuildHooks interface {
	OnBuildStart(ctx context.Context, ev BuildStart)
	OnModuleBuilt(ctx context.Context, ev ModuleBuilt)
	OnBuildComplete(ctx context.Context, ev BuildComplete)
}

// BuildChain runs a sequence of BuildHooks in order.
type BuildChain []BuildHooks

func (c BuildChain) OnBuildStart(ctx context.Context, ev BuildStart) {
	for _, h := range c {
		h.OnBuildStart(ctx, ev)
	}
}

func (c BuildChain) OnModuleBuilt(ctx context.Context, ev ModuleBuilt) {
	for _, h := range c {
		h.OnModuleBuilt(ctx, ev)
	}
}

func (c BuildChain) OnBuildComplete(ctx context.Context, ev BuildComplete) {
	for _, h := range c {
		h.OnBuildComplete(ctx, ev)
	}
}

// BuildFuncs adapts plain functions to BuildHooks. Nil fields are skipped.
type BuildFuncs struct {
	Start    func(context.Context, BuildStart)
	Module   func(context.Context, ModuleBuilt)
	Complete func(context.Context, BuildComplete)
}

func (f BuildFuncs) OnBuildStart(ctx context.Context, ev BuildStart) {
	if f.Start != nil {
		f.Start(ctx, ev)
	}
}

func (f BuildFuncs) OnModuleBuilt(ctx context.Context, ev ModuleBuilt) {
	if f.Module != nil {
		f.Module(ctx, ev)
	}
}

func (f BuildFuncs) OnBuildComplete(ctx context.Context, ev BuildComplete) {
	if f.Complete != nil {
		f.Complete(ctx, ev)
	}
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from snapshot cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the query API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	buildHooks BuildChain
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// AddBuildHooks appends h to the process-wide build hooks. Hooks run in
// registration order.
func AddBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = append(buildHooks, h)
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Build returns a snapshot of the registered build hooks.
func Build() BuildChain {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return append(BuildChain(nil), buildHooks...)
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = nil
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}

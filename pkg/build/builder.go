package build

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/modgraph/pkg/cache"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/graph/transform"
	"github.com/matzehuels/modgraph/pkg/observability"
	"github.com/matzehuels/modgraph/pkg/source"
)

// Builder populates module graphs from entry requests.
type Builder struct {
	adapter source.Adapter
}

// New creates a Builder that resolves and loads modules through adapter.
func New(adapter source.Adapter) *Builder {
	return &Builder{adapter: adapter}
}

// Build resolves entries and everything they transitively import.
//
// Resolution and load failures are recorded on the failing dependency or
// module and the build continues; they are returned in [Result.Errors].
// The returned error is non-nil only when the build was aborted: the
// context was canceled, Options.Bail is set and something failed, or a
// graph invariant broke. An aborted build returns no graph.
func (b *Builder) Build(ctx context.Context, entries []string, opts Options) (*Result, error) {
	if err := errors.ValidateEntries(entries); err != nil {
		return nil, err
	}
	if inv, ok := b.adapter.(source.Invalidator); ok {
		inv.Invalidate()
	}

	opts = opts.WithDefaults()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		ctx:         ctx,
		cancel:      cancel,
		id:          uuid.NewString(),
		opts:        opts,
		adapter:     b.adapter,
		hooks:       append(observability.Build(), opts.Hooks...),
		log:         opts.Logger,
		store:       graph.NewStore(),
		outstanding: make(map[graph.ModuleID]int),
		jobs:        make(chan job),
		results:     make(chan result, opts.Parallelism),
	}
	return r.run(entries)
}

type jobKind uint8

const (
	jobResolve jobKind = iota
	jobLoad
)

// job is one adapter call. Resolve jobs carry the dependency and the
// identity of its origin; load jobs carry the module.
type job struct {
	kind     jobKind
	dep      graph.DependencyID
	request  string
	origin   graph.Identity
	module   graph.ModuleID
	identity graph.Identity
}

type result struct {
	job
	resolved graph.Identity
	loaded   *source.Loaded
	err      error
}

// run is the state of one build. Everything except the channels and the
// adapter is owned by the collector goroutine.
type run struct {
	ctx     context.Context
	cancel  context.CancelFunc
	id      string
	opts    Options
	adapter source.Adapter
	hooks   observability.BuildChain
	log     *log.Logger

	store       *graph.Store
	outstanding map[graph.ModuleID]int // unresolved own dependencies of linking modules
	reused      int

	queue   []job
	pending int // queued plus in-flight jobs
	jobs    chan job
	results chan result
	wg      sync.WaitGroup
}

func (r *run) run(entries []string) (*Result, error) {
	start := time.Now()
	r.hooks.OnBuildStart(r.ctx, observability.BuildStart{
		ID:          r.id,
		Entries:     entries,
		Parallelism: r.opts.Parallelism,
		Incremental: r.opts.Reuse != nil,
	})
	r.log.Debug("build started", "id", r.id, "entries", len(entries), "parallelism", r.opts.Parallelism)

	for range r.opts.Parallelism {
		r.wg.Add(1)
		go r.worker()
	}

	err := r.seed(entries)
	if err == nil {
		err = r.collect()
	}
	if err != nil {
		r.cancel()
	}
	close(r.jobs)
	r.wg.Wait()

	if err != nil {
		return nil, r.abort(err, start)
	}

	store := r.store.Compact()
	removed := 0
	if r.opts.RemoveAvailableModules {
		removed = transform.RemoveAvailableModules(store)
	}
	if err := store.Validate(); err != nil {
		return nil, r.abort(err, start)
	}
	g := graph.Seal(store)

	res := &Result{
		BuildID: r.id,
		Graph:   g,
		Errors:  collectErrors(g),
		Stats: Stats{
			Modules:           g.ModuleCount(),
			Dependencies:      g.DependencyCount(),
			Connections:       g.ConnectionCount(),
			ActiveConnections: g.ActiveConnectionCount(),
			Reused:            r.reused,
			Removed:           removed,
			Duration:          time.Since(start),
		},
	}
	if plan := r.opts.Reuse; plan != nil {
		res.Stale = plan.Stale
		res.Pruned = plan.Pruned(g)
	}

	r.hooks.OnBuildComplete(r.ctx, observability.BuildComplete{
		ID:          r.id,
		Modules:     res.Stats.Modules,
		Connections: res.Stats.ActiveConnections,
		Errors:      len(res.Errors),
		Duration:    res.Stats.Duration,
	})
	r.log.Debug("build finished",
		"id", r.id,
		"modules", res.Stats.Modules,
		"reused", res.Stats.Reused,
		"errors", len(res.Errors),
		"duration", res.Stats.Duration)
	return res, nil
}

// abort converts err into the error returned by Build and reports it.
func (r *run) abort(err error, start time.Time) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		if !errors.Is(err, errors.ErrCodeAborted) {
			err = errors.Wrap(errors.ErrCodeAborted, err, "build canceled")
		}
	}
	r.hooks.OnBuildComplete(context.WithoutCancel(r.ctx), observability.BuildComplete{
		ID:       r.id,
		Duration: time.Since(start),
		Err:      err,
	})
	r.log.Debug("build aborted", "id", r.id, "err", err)
	return err
}

func (r *run) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		res := result{job: j}
		res.err = cache.Retry(r.ctx, r.opts.Retries, r.opts.RetryDelay, func() error {
			var err error
			switch j.kind {
			case jobResolve:
				res.resolved, err = r.adapter.Resolve(r.ctx, j.request, j.origin)
			case jobLoad:
				res.loaded, err = r.adapter.Load(r.ctx, j.identity)
			}
			return err
		})
		select {
		case r.results <- res:
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *run) enqueue(j job) {
	r.pending++
	r.queue = append(r.queue, j)
}

func (r *run) seed(entries []string) error {
	for i, e := range entries {
		dep, err := r.store.CreateDependency(graph.NoModule, i, e, graph.KindEntry)
		if err != nil {
			return err
		}
		r.enqueue(job{kind: jobResolve, dep: dep, request: e})
	}
	return nil
}

// collect is the single writer: it hands queued jobs to workers, commits
// their results to the store and returns once nothing is queued or in
// flight.
func (r *run) collect() error {
	for r.pending > 0 {
		var out chan<- job
		var next job
		if len(r.queue) > 0 {
			out = r.jobs
			next = r.queue[0]
		}
		select {
		case out <- next:
			r.queue = r.queue[1:]
		case res := <-r.results:
			r.pending--
			if err := r.handle(res); err != nil {
				return err
			}
		case <-r.ctx.Done():
			return r.ctx.Err()
		}
	}
	return nil
}

func (r *run) handle(res result) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	switch res.kind {
	case jobResolve:
		return r.resolved(res)
	case jobLoad:
		return r.loaded(res)
	}
	return errors.Invariant("unknown job kind %d", res.kind)
}

func (r *run) resolved(res result) error {
	dep, ok := r.store.Dependency(res.dep)
	if !ok {
		return errors.Invariant("resolved unknown dependency %d", res.dep)
	}

	if res.err != nil {
		origin := ""
		if !dep.IsEntry() {
			origin = res.origin.String()
		}
		failure := errors.ResolutionFailure(dep.Request, origin, res.err)
		if err := r.store.FailDependency(res.dep, failure); err != nil {
			return err
		}
		r.log.Warn("unresolved request", "request", dep.Request, "origin", origin, "err", res.err)
		if err := r.fail(failure); err != nil {
			return err
		}
		return r.settle(dep.Origin)
	}

	mod, created, err := r.store.CreateModule(res.resolved)
	if err != nil {
		return err
	}
	if err := r.store.SetConnection(res.dep, mod); err != nil {
		return err
	}
	if created {
		if err := r.schedule(mod); err != nil {
			return err
		}
	}
	return r.settle(dep.Origin)
}

func (r *run) loaded(res result) error {
	if res.err != nil {
		failure := errors.LoadFailure(res.identity.String(), res.err)
		if err := r.store.FailModule(res.module, failure); err != nil {
			return err
		}
		r.log.Warn("load failed", "module", res.identity, "err", res.err)
		r.hooks.OnModuleBuilt(r.ctx, observability.ModuleBuilt{
			BuildID: r.id,
			Module:  res.identity.String(),
			Err:     failure,
		})
		return r.fail(failure)
	}

	loaded := res.loaded
	if loaded == nil {
		loaded = &source.Loaded{}
	}
	if err := r.store.SetFingerprint(res.module, loaded.Fingerprint); err != nil {
		return err
	}
	if err := r.store.SetModuleState(res.module, graph.StateLinking); err != nil {
		return err
	}

	seen := make(map[graph.DependencyID]bool, len(loaded.Requests))
	for _, req := range loaded.Requests {
		dep, err := r.store.CreateDependency(res.module, req.Index, req.Specifier, req.Kind)
		if err != nil {
			return err
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		r.enqueue(job{kind: jobResolve, dep: dep, request: req.Specifier, origin: res.identity})
	}

	if len(seen) == 0 {
		return r.finish(res.module)
	}
	r.outstanding[res.module] = len(seen)
	return nil
}

// schedule starts work on newly discovered modules: reusable modules are
// linked from the previous build right away, everything else is loaded.
// Reuse can discover further modules, so this walks a stack.
func (r *run) schedule(mod graph.ModuleID) error {
	stack := []graph.ModuleID{mod}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m, _ := r.store.Module(id)
		prev, ok := r.opts.Reuse.Reusable(m.Identity)
		if !ok {
			if err := r.store.SetModuleState(id, graph.StateLoading); err != nil {
				return err
			}
			r.enqueue(job{kind: jobLoad, module: id, identity: m.Identity})
			continue
		}

		discovered, err := r.reuse(id, prev)
		if err != nil {
			return err
		}
		stack = append(stack, discovered...)
	}
	return nil
}

// reuse recreates the dependencies of a module from its previous record and
// links them to their previous targets without calling the adapter.
func (r *run) reuse(id graph.ModuleID, prev *graph.SnapshotModule) ([]graph.ModuleID, error) {
	if err := r.store.SetModuleState(id, graph.StateResolving); err != nil {
		return nil, err
	}
	if err := r.store.SetFingerprint(id, prev.Fingerprint); err != nil {
		return nil, err
	}
	if err := r.store.MarkReused(id); err != nil {
		return nil, err
	}
	if err := r.store.SetModuleState(id, graph.StateLinking); err != nil {
		return nil, err
	}
	r.reused++

	m, _ := r.store.Module(id)
	var discovered []graph.ModuleID
	unresolved := 0
	for _, d := range prev.Dependencies {
		dep, err := r.store.CreateDependency(id, d.Index, d.Request, d.Kind)
		if err != nil {
			return nil, err
		}
		if d.Target == nil {
			unresolved++
			r.enqueue(job{kind: jobResolve, dep: dep, request: d.Request, origin: m.Identity})
			continue
		}
		target, created, err := r.store.CreateModule(*d.Target)
		if err != nil {
			return nil, err
		}
		if err := r.store.SetConnection(dep, target); err != nil {
			return nil, err
		}
		if created {
			discovered = append(discovered, target)
		}
	}

	if unresolved > 0 {
		r.outstanding[id] = unresolved
		return discovered, nil
	}
	return discovered, r.finish(id)
}

// settle records that one dependency of origin is resolved or failed.
func (r *run) settle(origin graph.ModuleID) error {
	if origin == graph.NoModule {
		return nil
	}
	r.outstanding[origin]--
	if r.outstanding[origin] > 0 {
		return nil
	}
	return r.finish(origin)
}

// finish marks a module built: every one of its own dependencies has been
// resolved or has failed. Its targets need not be built yet.
func (r *run) finish(id graph.ModuleID) error {
	delete(r.outstanding, id)
	if err := r.store.SetModuleState(id, graph.StateBuilt); err != nil {
		return err
	}
	m, _ := r.store.Module(id)
	r.hooks.OnModuleBuilt(r.ctx, observability.ModuleBuilt{
		BuildID:      r.id,
		Module:       m.Identity.String(),
		Dependencies: len(m.Dependencies),
		Reused:       m.Reused,
	})
	r.log.Debug("module built", "module", m.Identity, "dependencies", len(m.Dependencies), "reused", m.Reused)
	return nil
}

// fail applies the bail policy to a recorded failure.
func (r *run) fail(failure *errors.Error) error {
	if r.opts.Bail {
		return errors.Wrap(errors.ErrCodeAborted, failure, "build aborted")
	}
	return nil
}

// collectErrors gathers recorded failures in canonical order.
func collectErrors(g *graph.ModuleGraph) errors.List {
	var list errors.List
	for _, d := range g.Dependencies() {
		if d.Err != nil {
			list = append(list, d.Err)
		}
	}
	for _, m := range g.Modules() {
		if m.Err != nil {
			list = append(list, m.Err)
		}
	}
	return list
}

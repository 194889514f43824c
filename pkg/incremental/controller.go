package incremental

import (
	"context"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/source"
)

// Options configures a [Controller].
type Options struct {
	Parallelism int         // concurrent module checks (default: runtime.NumCPU())
	Logger      *log.Logger // default: log.Default()
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Controller decides which modules of a previous build can be reused.
type Controller struct {
	adapter source.Adapter
	opts    Options
}

// NewController creates a controller that revalidates modules through
// adapter.
func NewController(adapter source.Adapter, opts Options) *Controller {
	return &Controller{adapter: adapter, opts: opts.WithDefaults()}
}

// Plan revalidates every module that was built in prev.
//
// A module is reusable when its content fingerprint is unchanged and each
// of its requests still resolves to the same target as before. Modules that
// fail either check, modules that errored in prev, and modules with a
// request that failed to resolve in prev are changed. Changed modules and
// everything that transitively depends on them are stale; all other
// modules are reusable.
//
// Adapter failures during revalidation mark the module changed. Plan
// returns an error only when ctx is canceled.
func (c *Controller) Plan(ctx context.Context, prev *graph.Snapshot) (*Plan, error) {
	plan := &Plan{Previous: prev, reusable: make(map[graph.Identity]*graph.SnapshotModule)}
	if prev == nil {
		return plan, nil
	}
	if inv, ok := c.adapter.(source.Invalidator); ok {
		inv.Invalidate()
	}

	changed := make([]bool, len(prev.Modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallelism)
	for i := range prev.Modules {
		m := &prev.Modules[i]
		if m.State != graph.StateBuilt {
			changed[i] = true
			continue
		}
		g.Go(func() error {
			ok, err := c.unchanged(gctx, m)
			if err != nil {
				return err
			}
			changed[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAborted, err, "reuse planning canceled")
	}

	stale := make(map[graph.Identity]bool)
	dependents := prev.Dependents()
	var queue []graph.Identity
	for i, m := range prev.Modules {
		if changed[i] {
			plan.Changed = append(plan.Changed, m.Identity)
			stale[m.Identity] = true
			queue = append(queue, m.Identity)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, d := range dependents[id] {
			if !stale[d] {
				stale[d] = true
				queue = append(queue, d)
			}
		}
	}

	for i := range prev.Modules {
		m := &prev.Modules[i]
		if stale[m.Identity] {
			plan.Stale = append(plan.Stale, m.Identity)
		} else {
			plan.reusable[m.Identity] = m
		}
	}
	slices.SortFunc(plan.Changed, compareIdentity)
	slices.SortFunc(plan.Stale, compareIdentity)

	c.opts.Logger.Debug("reuse plan",
		"modules", len(prev.Modules),
		"changed", len(plan.Changed),
		"stale", len(plan.Stale),
		"reusable", len(plan.reusable))
	return plan, nil
}

// unchanged reports whether m can be reused. Only context errors are
// returned as errors.
func (c *Controller) unchanged(ctx context.Context, m *graph.SnapshotModule) (bool, error) {
	fp, err := c.fingerprint(ctx, m.Identity)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.opts.Logger.Debug("module unreadable", "module", m.Identity, "err", err)
		return false, nil
	}
	if fp != m.Fingerprint {
		return false, nil
	}

	for _, d := range m.Dependencies {
		if d.Target == nil {
			return false, nil
		}
		id, err := c.adapter.Resolve(ctx, d.Request, m.Identity)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, nil
		}
		if id != *d.Target {
			return false, nil
		}
	}
	return true, nil
}

func (c *Controller) fingerprint(ctx context.Context, id graph.Identity) (string, error) {
	if f, ok := c.adapter.(source.Fingerprinter); ok {
		return f.Fingerprint(ctx, id)
	}
	loaded, err := c.adapter.Load(ctx, id)
	if err != nil {
		return "", err
	}
	return loaded.Fingerprint, nil
}

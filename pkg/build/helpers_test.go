package build

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/source"
)

// fakeProject is an in-memory adapter. Requests are absolute module paths;
// a "dyn:" or "req:" prefix selects the dependency kind.
type fakeProject struct {
	mu       sync.Mutex
	files    map[string][]source.Request
	content  map[string]string
	loadErr  map[string]error
	loads    map[string]int
	resolves int
	jitter   bool
}

func newProject() *fakeProject {
	return &fakeProject{
		files:   make(map[string][]source.Request),
		content: make(map[string]string),
		loadErr: make(map[string]error),
		loads:   make(map[string]int),
	}
}

func (p *fakeProject) file(path string, deps ...string) *fakeProject {
	reqs := make([]source.Request, len(deps))
	for i, d := range deps {
		kind := graph.KindStatic
		switch {
		case strings.HasPrefix(d, "dyn:"):
			kind, d = graph.KindDynamic, strings.TrimPrefix(d, "dyn:")
		case strings.HasPrefix(d, "req:"):
			kind, d = graph.KindRequire, strings.TrimPrefix(d, "req:")
		}
		reqs[i] = source.Request{Specifier: d, Index: i, Kind: kind}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = reqs
	p.content[path] = path + strings.Join(deps, ",")
	return p
}

func (p *fakeProject) sleep() {
	if p.jitter {
		time.Sleep(time.Duration(rand.IntN(300)) * time.Microsecond)
	}
}

func (p *fakeProject) Resolve(ctx context.Context, request string, origin graph.Identity) (graph.Identity, error) {
	p.sleep()
	if err := ctx.Err(); err != nil {
		return graph.Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolves++
	if _, ok := p.files[request]; !ok {
		return graph.Identity{}, fmt.Errorf("%w: %s", source.ErrModuleNotFound, request)
	}
	return graph.Identity{Path: request, Variant: source.VariantAuto}, nil
}

func (p *fakeProject) Load(ctx context.Context, id graph.Identity) (*source.Loaded, error) {
	p.sleep()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads[id.Path]++
	if err := p.loadErr[id.Path]; err != nil {
		return nil, err
	}
	return &source.Loaded{
		Fingerprint: p.content[id.Path],
		Requests:    append([]source.Request(nil), p.files[id.Path]...),
	}, nil
}

func (p *fakeProject) loadCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads[path]
}

// randomProject generates n modules with up to four requests each,
// including cycles, self imports, all kinds, and a few missing targets.
func randomProject(seed uint64, n int) *fakeProject {
	rng := rand.New(rand.NewPCG(seed, seed*31+7))
	p := newProject()
	p.jitter = true
	kinds := []string{"", "", "dyn:", "req:"}
	for i := range n {
		var deps []string
		for range rng.IntN(5) {
			target := rng.IntN(n + 2)
			path := fmt.Sprintf("/m%d.js", target)
			if target >= n {
				path = fmt.Sprintf("/missing%d.js", target)
			}
			deps = append(deps, kinds[rng.IntN(len(kinds))]+path)
		}
		p.file(fmt.Sprintf("/m%d.js", i), deps...)
	}
	return p
}

// describe renders everything observable about g in handle order.
func describe(g *graph.ModuleGraph) []string {
	var out []string
	for _, m := range g.Modules() {
		var b strings.Builder
		fmt.Fprintf(&b, "module %d %s %s", m.ID, m.Identity, m.State)
		for _, c := range g.OrderedOutgoingConnections(m.ID) {
			d, _ := g.Dependency(c.Dependency)
			fmt.Fprintf(&b, " %d[%d %s %s]->%d", d.ID, d.Index, d.Request, d.Kind, c.Target)
		}
		out = append(out, b.String())
	}
	for _, d := range g.Dependencies() {
		out = append(out, fmt.Sprintf("dependency %d origin=%d %q %s", d.ID, d.Origin, d.Request, d.State))
	}
	return out
}

func quietOptions(opts Options) Options {
	opts.Logger = log.New(io.Discard)
	return opts
}

func mustBuild(t *testing.T, p *fakeProject, entries []string, opts Options) *Result {
	t.Helper()
	res, err := New(p).Build(context.Background(), entries, quietOptions(opts))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

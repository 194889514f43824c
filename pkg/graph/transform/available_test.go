package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modgraph/pkg/graph"
)

type edge struct {
	from, to string
	kind     graph.Kind
}

type fixture struct {
	store *graph.Store
	mods  map[string]graph.ModuleID
	deps  map[string]graph.DependencyID // "from→to"
}

func newFixture(t *testing.T, entries []string, edges []edge) *fixture {
	t.Helper()
	f := &fixture{
		store: graph.NewStore(),
		mods:  map[string]graph.ModuleID{},
		deps:  map[string]graph.DependencyID{},
	}
	mod := func(name string) graph.ModuleID {
		id, _, err := f.store.CreateModule(graph.Identity{Path: "/src/" + name})
		require.NoError(t, err)
		f.mods[name] = id
		return id
	}
	for i, e := range entries {
		d, err := f.store.CreateDependency(graph.NoModule, i, "./"+e, graph.KindEntry)
		require.NoError(t, err)
		require.NoError(t, f.store.SetConnection(d, mod(e)))
	}
	next := map[string]int{}
	for _, e := range edges {
		from := mod(e.from)
		d, err := f.store.CreateDependency(from, next[e.from], "./"+e.to, e.kind)
		require.NoError(t, err)
		next[e.from]++
		require.NoError(t, f.store.SetConnection(d, mod(e.to)))
		f.deps[e.from+"→"+e.to] = d
	}
	return f
}

func (f *fixture) active(t *testing.T, key string) bool {
	t.Helper()
	c, ok := f.store.Connection(f.deps[key])
	require.True(t, ok, key)
	return c.Active
}

func TestRemoveAvailableModulesSharedAcrossAsyncChunks(t *testing.T) {
	f := newFixture(t, []string{"index.js"}, []edge{
		{"index.js", "shared.mjs", graph.KindStatic},
		{"index.js", "page.mjs", graph.KindDynamic},
		{"index.js", "page2.mjs", graph.KindDynamic},
		{"page.mjs", "shared.mjs", graph.KindStatic},
		{"page.mjs", "helpers.mjs", graph.KindStatic},
		{"page.mjs", "page_only_helper.mjs", graph.KindStatic},
		{"page2.mjs", "shared.mjs", graph.KindStatic},
		{"page2.mjs", "helpers.mjs", graph.KindStatic},
	})

	removed := RemoveAvailableModules(f.store)
	assert.Equal(t, 2, removed)

	assert.False(t, f.active(t, "page.mjs→shared.mjs"), "shared is loaded by the entry block")
	assert.False(t, f.active(t, "page2.mjs→shared.mjs"))
	assert.True(t, f.active(t, "page.mjs→helpers.mjs"), "helpers is not loaded before either page")
	assert.True(t, f.active(t, "page2.mjs→helpers.mjs"))
	assert.True(t, f.active(t, "index.js→shared.mjs"))
	assert.True(t, f.active(t, "index.js→page.mjs"))
	require.NoError(t, f.store.Validate())
}

func TestRemoveAvailableModulesRequiresEveryParent(t *testing.T) {
	// lazy.js is imported from two entries; only one of them loads util.js.
	f := newFixture(t, []string{"a.js", "b.js"}, []edge{
		{"a.js", "util.js", graph.KindStatic},
		{"a.js", "lazy.js", graph.KindDynamic},
		{"b.js", "lazy.js", graph.KindDynamic},
		{"lazy.js", "util.js", graph.KindStatic},
	})

	assert.Zero(t, RemoveAvailableModules(f.store))
	assert.True(t, f.active(t, "lazy.js→util.js"))
}

func TestRemoveAvailableModulesNestedAsync(t *testing.T) {
	f := newFixture(t, []string{"main.js"}, []edge{
		{"main.js", "core.js", graph.KindStatic},
		{"main.js", "route.js", graph.KindDynamic},
		{"route.js", "widget.js", graph.KindStatic},
		{"route.js", "modal.js", graph.KindDynamic},
		{"modal.js", "widget.js", graph.KindStatic},
		{"modal.js", "core.js", graph.KindRequire},
		{"modal.js", "route.js", graph.KindDynamic},
	})

	assert.Equal(t, 3, RemoveAvailableModules(f.store))
	assert.False(t, f.active(t, "modal.js→widget.js"), "available through route.js")
	assert.False(t, f.active(t, "modal.js→core.js"), "available through main.js")
	assert.False(t, f.active(t, "modal.js→route.js"), "importing the parent block again adds nothing")
	assert.True(t, f.active(t, "route.js→widget.js"))
}

func TestRemoveAvailableModulesSameBlockUntouched(t *testing.T) {
	f := newFixture(t, []string{"a.js"}, []edge{
		{"a.js", "b.js", graph.KindStatic},
		{"a.js", "c.js", graph.KindStatic},
		{"b.js", "c.js", graph.KindStatic},
		{"c.js", "a.js", graph.KindStatic},
	})
	assert.Zero(t, RemoveAvailableModules(f.store))
}

func TestRemoveAvailableModulesIsRecomputed(t *testing.T) {
	f := newFixture(t, []string{"index.js"}, []edge{
		{"index.js", "shared.js", graph.KindStatic},
		{"index.js", "page.js", graph.KindDynamic},
		{"page.js", "shared.js", graph.KindStatic},
		{"page.js", "other.js", graph.KindStatic},
	})
	// A stale decision from an earlier pass must not survive.
	require.NoError(t, f.store.DeactivateConnection(f.deps["page.js→other.js"]))

	assert.Equal(t, 1, RemoveAvailableModules(f.store))
	assert.True(t, f.active(t, "page.js→other.js"))
	assert.False(t, f.active(t, "page.js→shared.js"))

	assert.Equal(t, 1, RemoveAvailableModules(f.store), "passes are idempotent")
}

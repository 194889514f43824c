package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/observability"
	"github.com/matzehuels/modgraph/pkg/source"
)

func buildProject(t *testing.T, files map[string]string, entries ...string) *build.Result {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	adapter, err := source.NewFS(fsys, "/")
	require.NoError(t, err)
	res, err := build.New(adapter).Build(context.Background(), entries, build.Options{
		Parallelism: 2,
		Logger:      log.New(io.Discard),
	})
	require.NoError(t, err)
	return res
}

var files = map[string]string{
	"index.js": `import "./a"; import("./b");`,
	"a.js":     `import "./b";`,
	"b.js":     `require("./missing");`,
}

func newTestServer(t *testing.T) (*Server, *build.Result) {
	t.Helper()
	res := buildProject(t, files, "./index.js")
	return New(":0", res, log.New(io.Discard)), res
}

func moduleID(t *testing.T, g *graph.ModuleGraph, path string) graph.ModuleID {
	t.Helper()
	for _, m := range g.Modules() {
		if m.Identity.Path == path {
			return m.ID
		}
	}
	t.Fatalf("no module %s", path)
	return 0
}

func get(t *testing.T, s *Server, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	if v != nil {
		require.NoError(t, json.NewDecoder(w.Body).Decode(v), w.Body.String())
	}
	return w
}

func TestListModules(t *testing.T) {
	s, _ := newTestServer(t)

	var all []ModuleResponse
	w := get(t, s, "/modules", &all)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, all, 3)
	for _, m := range all {
		assert.Equal(t, graph.StateBuilt, m.State)
		assert.NotEmpty(t, m.Fingerprint)
	}

	var filtered []ModuleResponse
	get(t, s, "/modules?path=/a.js", &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "/a.js", filtered[0].Path)
	assert.Equal(t, source.VariantAuto, filtered[0].Variant)

	var none []ModuleResponse
	get(t, s, "/modules?path=/nope.js", &none)
	assert.Empty(t, none)
	assert.NotNil(t, none, "empty result is a JSON array")
}

func TestGetModule(t *testing.T) {
	s, res := newTestServer(t)
	id := moduleID(t, res.Graph, "/b.js")

	var m ModuleResponse
	w := get(t, s, fmt.Sprintf("/modules/%d", id), &m)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, "/b.js", m.Path)
	assert.Len(t, m.Dependencies, 1)
}

func TestRequestErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path   string
		status int
		code   errors.Code
	}{
		{"/modules/99", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/modules/abc", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/modules/-1/incoming", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/modules/99/outgoing", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/dependencies/99", http.StatusNotFound, errors.ErrCodeNotFound},
		{"/dependencies/x", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"/nowhere", http.StatusNotFound, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var e ErrorResponse
			w := get(t, s, tt.path, &e)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/modules", nil)
		w := httptest.NewRecorder()
		s.Routes().ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestOutgoing(t *testing.T) {
	s, res := newTestServer(t)
	g := res.Graph
	index := moduleID(t, g, "/index.js")

	var ordered []ConnectionResponse
	get(t, s, fmt.Sprintf("/modules/%d/outgoing?ordered=true", index), &ordered)
	require.Len(t, ordered, 2)
	assert.Equal(t, moduleID(t, g, "/a.js"), ordered[0].Target)
	assert.Equal(t, moduleID(t, g, "/b.js"), ordered[1].Target)
	for _, c := range ordered {
		require.NotNil(t, c.Origin)
		assert.Equal(t, index, *c.Origin)
		assert.True(t, c.Active)
	}

	var byDep map[string]ConnectionResponse
	get(t, s, fmt.Sprintf("/modules/%d/outgoing", index), &byDep)
	require.Len(t, byDep, 2)
	for key, c := range byDep {
		assert.Equal(t, fmt.Sprint(c.Dependency), key)
	}

	var fromB []ConnectionResponse
	get(t, s, fmt.Sprintf("/modules/%d/outgoing?ordered=true", moduleID(t, g, "/b.js")), &fromB)
	assert.Empty(t, fromB, "failed requests have no connection")
}

func TestIncoming(t *testing.T) {
	s, res := newTestServer(t)
	g := res.Graph

	var in []ConnectionResponse
	get(t, s, fmt.Sprintf("/modules/%d/incoming", moduleID(t, g, "/b.js")), &in)
	assert.Len(t, in, 2)

	var entryIn []ConnectionResponse
	get(t, s, fmt.Sprintf("/modules/%d/incoming", moduleID(t, g, "/index.js")), &entryIn)
	require.Len(t, entryIn, 1)
	assert.Nil(t, entryIn[0].Origin, "entry connections have no origin")
}

func TestGetDependency(t *testing.T) {
	s, res := newTestServer(t)
	g := res.Graph

	entry := g.Entries()[0]
	var d DependencyResponse
	w := get(t, s, fmt.Sprintf("/dependencies/%d", entry.ID), &d)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, d.Origin)
	assert.Equal(t, graph.KindEntry, d.Kind)
	require.NotNil(t, d.Connection)
	require.NotNil(t, d.Module)
	assert.Equal(t, "/index.js", d.Module.Path)

	b, _ := g.Module(moduleID(t, g, "/b.js"))
	var failed DependencyResponse
	get(t, s, fmt.Sprintf("/dependencies/%d", b.Dependencies[0]), &failed)
	assert.Equal(t, "./missing", failed.Request)
	assert.Equal(t, graph.KindRequire, failed.Kind)
	assert.NotEmpty(t, failed.Error)
	assert.Nil(t, failed.Connection)
	assert.Nil(t, failed.Module)
}

func TestErrorsAndStats(t *testing.T) {
	s, res := newTestServer(t)

	var errs []ErrorResponse
	get(t, s, "/errors", &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, errors.ErrCodeResolution, errs[0].Code)
	assert.Equal(t, "./missing", errs[0].Request)

	var stats StatsResponse
	get(t, s, "/stats", &stats)
	assert.Equal(t, res.BuildID, stats.BuildID)
	assert.Equal(t, 3, stats.Modules)
	assert.Equal(t, 1, stats.Errors)

	var health map[string]string
	get(t, s, "/health", &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "dev (none)", health["version"])
}

func TestUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	next := buildProject(t, map[string]string{"main.js": ``}, "./main.js")
	s.Update(next)

	var all []ModuleResponse
	get(t, s, "/modules", &all)
	require.Len(t, all, 1)
	assert.Equal(t, "/main.js", all[0].Path)
	assert.Same(t, next, s.Result())
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (h *recordingHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newTestServer(t)
	get(t, s, "/health", nil)
	get(t, s, "/modules/99", nil)

	assert.Equal(t, []string{"GET /health", "GET /modules/99"}, hooks.requests)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.responses)
}

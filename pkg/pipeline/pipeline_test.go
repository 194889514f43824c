package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modgraph/pkg/cache"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/source"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"json", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing root", Options{Entries: []string{"./a.js"}}, errors.ErrCodeInvalidInput},
		{"relative context", Options{Root: "/p", Context: "src", Entries: []string{"./a.js"}}, errors.ErrCodeInvalidPath},
		{"no entries", Options{Root: "/p"}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Root: "/p", Entries: []string{"./a.js"}, Formats: []string{"png"}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want code %s", err, tt.code)
			}
		})
	}

	opts := Options{Root: "/p", Entries: []string{"./a.js"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Context != DefaultContext || opts.SnapshotTTL != cache.SnapshotTTL || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

// testRunner returns a runner over an in-memory project backed by a file
// cache in a temporary directory.
func testRunner(t *testing.T, files map[string]string) (*Runner, fstest.MapFS) {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	r.Adapter = func(opts Options) (source.Adapter, error) {
		return source.NewFS(fsys, opts.Context)
	}
	t.Cleanup(func() { r.Close() })
	return r, fsys
}

var project = map[string]string{
	"src/index.js":  `import "./a"; import("./lazy");`,
	"src/a.js":      `import "./shared";`,
	"src/lazy.js":   `import "./shared";`,
	"src/shared.js": `export const x = 1;`,
}

func run(t *testing.T, r *Runner, opts Options) *Result {
	t.Helper()
	if opts.Root == "" {
		opts.Root = "/project"
	}
	if opts.Entries == nil {
		opts.Entries = []string{"./src/index.js"}
	}
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

func TestExecuteRendersArtifacts(t *testing.T) {
	r, _ := testRunner(t, project)
	res := run(t, r, Options{Formats: []string{FormatDOT, FormatJSON}})

	if got := res.Build.Graph.ModuleCount(); got != 4 {
		t.Errorf("modules = %d, want 4", got)
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), "digraph G {") {
		t.Errorf("dot artifact: %s", res.Artifacts[FormatDOT])
	}

	snap, err := graph.ReadSnapshot(bytes.NewReader(res.Artifacts[FormatJSON]))
	if err != nil {
		t.Fatalf("json artifact is not a snapshot: %v", err)
	}
	if snap.Context != "/" || len(snap.Modules) != 4 {
		t.Errorf("snapshot context=%q modules=%d", snap.Context, len(snap.Modules))
	}
	if res.SnapshotHash != cache.Hash(res.Artifacts[FormatJSON]) {
		t.Error("SnapshotHash should hash the json artifact")
	}
	if res.CacheInfo.RenderHit {
		t.Error("first render cannot hit the cache")
	}

	again := run(t, r, Options{Formats: []string{FormatDOT, FormatJSON}})
	if !again.CacheInfo.RenderHit {
		t.Error("identical graph should render from cache")
	}
}

func TestExecuteIncremental(t *testing.T) {
	r, fsys := testRunner(t, project)
	opts := Options{Incremental: true}

	first := run(t, r, opts)
	if first.CacheInfo.SnapshotHit {
		t.Error("first run has no snapshot")
	}

	second := run(t, r, opts)
	if !second.CacheInfo.SnapshotHit || second.CacheInfo.Reused != 4 {
		t.Errorf("second run: %+v", second.CacheInfo)
	}
	if second.Build.Stats.Reused != 4 {
		t.Errorf("reused = %d, want 4", second.Build.Stats.Reused)
	}
	if second.SnapshotHash != first.SnapshotHash {
		t.Error("unchanged project should produce the same snapshot")
	}

	fsys["src/lazy.js"] = &fstest.MapFile{Data: []byte(`export default 1;`)}
	third := run(t, r, opts)
	if third.Build.Stats.Reused != 2 {
		t.Errorf("reused = %d, want 2 (a.js, shared.js)", third.Build.Stats.Reused)
	}
	if third.SnapshotHash == first.SnapshotHash {
		t.Error("changed project should produce a new snapshot")
	}

	refreshed := run(t, r, Options{Incremental: true, Refresh: true})
	if refreshed.CacheInfo.SnapshotHit || refreshed.Build.Stats.Reused != 0 {
		t.Errorf("refresh should ignore the snapshot: %+v", refreshed.CacheInfo)
	}
}

func TestExecuteNonIncrementalStoresNothing(t *testing.T) {
	r, _ := testRunner(t, project)
	res := run(t, r, Options{})

	if _, hit, _ := r.Cache.Get(context.Background(), res.SnapshotKey); hit {
		t.Error("non-incremental runs should not store a snapshot")
	}
}

func TestExecuteReportsBuildErrors(t *testing.T) {
	r, _ := testRunner(t, map[string]string{"src/index.js": `import "./gone";`})
	res := run(t, r, Options{})

	if len(res.Build.Errors) != 1 || res.Build.Errors[0].Code != errors.ErrCodeResolution {
		t.Errorf("errors = %v", res.Build.Errors)
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r, _ := testRunner(t, project)
	_, err := r.Execute(context.Background(), Options{Root: "/project"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("got %v", err)
	}
}

func TestExecutePreviousWithoutCache(t *testing.T) {
	r, fsys := testRunner(t, project)
	r.Cache = cache.NewNullCache()

	first := run(t, r, Options{Incremental: true})
	if first.CacheInfo.SnapshotHit {
		t.Fatal("null cache cannot hit")
	}
	prev := first.Build.Snapshot()
	prev.Context = "/"

	fsys["src/lazy.js"] = &fstest.MapFile{Data: []byte(`export default 1;`)}
	next := run(t, r, Options{Incremental: true, Previous: prev})
	if !next.CacheInfo.SnapshotHit || next.Build.Stats.Reused != 2 {
		t.Errorf("planned against Previous: %+v, reused %d", next.CacheInfo, next.Build.Stats.Reused)
	}

	prev.Context = "/src"
	other := run(t, r, Options{Incremental: true, Previous: prev})
	if other.CacheInfo.SnapshotHit || other.Build.Stats.Reused != 0 {
		t.Errorf("snapshot of another context should be ignored: %+v", other.CacheInfo)
	}
}

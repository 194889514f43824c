package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/graph/transform"
)

// sample builds: index.js imports shared.js statically and page.js
// dynamically; page.js imports shared.js (redundant) and requires a
// missing module.
func sample(t *testing.T) *graph.ModuleGraph {
	t.Helper()
	s := graph.NewStore()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mod := func(path string) graph.ModuleID {
		id, _, err := s.CreateModule(graph.Identity{Path: path})
		must(err)
		return id
	}
	link := func(origin graph.ModuleID, index int, target graph.ModuleID, kind graph.Kind) {
		m, _ := s.Module(target)
		d, err := s.CreateDependency(origin, index, "."+m.Identity.Path, kind)
		must(err)
		must(s.SetConnection(d, target))
	}

	entry, err := s.CreateDependency(graph.NoModule, 0, "./index.js", graph.KindEntry)
	must(err)
	index, shared, page := mod("/index.js"), mod("/shared.js"), mod("/page.js")
	must(s.SetConnection(entry, index))
	link(index, 0, shared, graph.KindStatic)
	link(index, 1, page, graph.KindDynamic)
	link(page, 0, shared, graph.KindStatic)
	missing, err := s.CreateDependency(page, 1, "./missing.js", graph.KindRequire)
	must(err)
	must(s.FailDependency(missing, errors.ResolutionFailure("./missing.js", "/page.js", nil)))

	transform.RemoveAvailableModules(s)
	return graph.Seal(s)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`m0 [label="/index.js", peripheries=2];`,
		`m1 [label="/shared.js"];`,
		"m0 -> m1;",
		"m0 -> m2 [style=dashed];",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "m2 -> m1") {
		t.Error("inactive connection drawn without Options.Inactive")
	}
	if strings.Contains(dot, "missing.js") {
		t.Error("failed request drawn without Options.Detailed")
	}
}

func TestToDOTInactiveAndDetailed(t *testing.T) {
	dot := ToDOT(sample(t), Options{Inactive: true, Detailed: true})

	for _, want := range []string{
		"m2 -> m1 [color=grey];",
		`[label="./missing.js", color=red`,
		"state: discovered",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDeterministic(t *testing.T) {
	if ToDOT(sample(t), Options{Detailed: true}) != ToDOT(sample(t), Options{Detailed: true}) {
		t.Error("ToDOT should be deterministic")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("unexpected root element: %s", out)
	}
	if !strings.HasSuffix(out, "<g/></svg>") {
		t.Errorf("body should be preserved: %s", out)
	}
}

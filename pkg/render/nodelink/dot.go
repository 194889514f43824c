package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/modgraph/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the variant, state and a fingerprint prefix to module
	// labels, and draws failed requests as separate red nodes.
	Detailed bool
	// Inactive also draws connections deactivated by optimizations, in grey.
	Inactive bool
}

// ToDOT converts a module graph to Graphviz DOT. Nodes and edges are
// emitted in handle order, so equal graphs produce equal output.
//
// Entry modules have a double border, errored modules are red, and reused
// modules are dashed. Dynamic imports are dashed edges, requires dotted.
func ToDOT(g *graph.ModuleGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	entries := make(map[graph.ModuleID]bool)
	for _, c := range g.EntryConnections() {
		entries[c.Target] = true
	}

	for _, m := range g.Modules() {
		attrs := moduleAttrs(m, entries[m.ID], opts.Detailed)
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(m.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, m := range g.Modules() {
		for _, d := range m.Dependencies {
			dep, _ := g.Dependency(d)
			c, active := g.ConnectionByDependency(d)
			switch {
			case active:
				fmt.Fprintf(&buf, "  %s -> %s%s;\n", nodeID(c.Origin), nodeID(c.Target), edgeAttrs(dep.Kind, ""))
			case opts.Inactive:
				if target, ok := g.ResolvedModule(d); ok {
					fmt.Fprintf(&buf, "  %s -> %s%s;\n", nodeID(m.ID), nodeID(target.ID), edgeAttrs(dep.Kind, "grey"))
				}
			}
			if opts.Detailed && dep.State == graph.DependencyFailed {
				fmt.Fprintf(&buf, "  d%d [label=%q, color=red, fontcolor=red, style=dashed];\n", dep.ID, dep.Request)
				fmt.Fprintf(&buf, "  %s -> d%d [color=red];\n", nodeID(m.ID), dep.ID)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id graph.ModuleID) string { return "m" + strconv.FormatUint(uint64(id), 10) }

func moduleAttrs(m graph.Module, entry, detailed bool) []string {
	label := m.Identity.Path
	if detailed {
		parts := []string{label}
		if m.Identity.Variant != "" {
			parts = append(parts, m.Identity.Variant)
		}
		parts = append(parts, "state: "+m.State.String())
		if fp := m.Fingerprint; fp != "" {
			parts = append(parts, "hash: "+fp[:min(8, len(fp))])
		}
		label = strings.Join(parts, "\n")
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if entry {
		attrs = append(attrs, "peripheries=2")
	}
	switch {
	case m.State == graph.StateErrored:
		attrs = append(attrs, "fillcolor=\"#fdd\"", "color=red")
	case m.Reused:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func edgeAttrs(kind graph.Kind, color string) string {
	var attrs []string
	switch kind {
	case graph.KindDynamic:
		attrs = append(attrs, "style=dashed")
	case graph.KindRequire:
		attrs = append(attrs, "style=dotted")
	}
	if color != "" {
		attrs = append(attrs, "color="+color)
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

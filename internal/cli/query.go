package cli

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
)

// Query directions.
const (
	directionOut  = "out"
	directionIn   = "in"
	directionBoth = "both"
)

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		pf        projectFlags
		direction string
	)

	cmd := &cobra.Command{
		Use:   "query <module> [entries...]",
		Short: "Show a module's outgoing and incoming connections",
		Long: `Query builds the graph and prints the connections of one module.

Outgoing rows follow source order and include failed and inactive requests.
Incoming rows list every active connection that targets the module, entry
connections included. The module is given by path relative to the project
root, or as "variant|path" to pick one variant.`,
		Example: `  modgraph query src/shared.js
  modgraph query --direction in "javascript/esm|/src/util.mjs" ./src/index.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch direction {
			case directionOut, directionIn, directionBoth:
			default:
				return fmt.Errorf("invalid direction %q (must be one of: out, in, both)", direction)
			}

			ctx := cmd.Context()
			opts, cacheCfg, err := pf.resolve(cmd, args[1:])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cacheCfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := c.execute(ctx, runner, opts)
			if err != nil {
				return err
			}

			g := res.Build.Graph
			mods := findModules(g, args[0])
			if len(mods) == 0 {
				return errors.New(errors.ErrCodeNotFound, "module %s is not in the graph", args[0])
			}
			for _, m := range mods {
				printModule(cmd.OutOrStdout(), g, m, direction)
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&direction, "direction", "d", directionBoth, "connections to show: out, in, both")
	return cmd
}

// findModules returns the modules matching query, either a "variant|path"
// identity or a path matching every variant. Paths are taken relative to
// the project root.
func findModules(g *graph.ModuleGraph, query string) []graph.Module {
	id := graph.ParseIdentity(query)
	id.Path = path.Join("/", id.Path)

	if id.Variant != "" {
		if m, ok := g.ModuleByIdentity(id); ok {
			return []graph.Module{m}
		}
		return nil
	}
	var out []graph.Module
	for _, m := range g.Modules() {
		if m.Identity.Path == id.Path {
			out = append(out, m)
		}
	}
	return out
}

func printModule(w io.Writer, g *graph.ModuleGraph, m graph.Module, direction string) {
	fmt.Fprintln(w, StyleTitle.Render(m.Identity.Path)+" "+StyleDim.Render(fmt.Sprintf("(%s, %s)", m.Identity.Variant, m.State)))
	if m.Err != nil {
		fmt.Fprintln(w, "  "+StyleError.Render(errors.UserMessage(m.Err)))
	}
	if direction != directionIn {
		fmt.Fprintln(w, connectionTable([]string{"", "Kind", "Request", "Target", "Status"}, outgoingRows(g, m.ID)))
	}
	if direction != directionOut {
		fmt.Fprintln(w, connectionTable([]string{"", "Kind", "Request", "Origin"}, incomingRows(g, m.ID)))
	}
}

// outgoingRows lists every dependency of module in source order.
func outgoingRows(g *graph.ModuleGraph, module graph.ModuleID) [][]string {
	m, ok := g.Module(module)
	if !ok {
		return nil
	}
	rows := make([][]string, 0, len(m.Dependencies))
	for _, id := range m.Dependencies {
		d, _ := g.Dependency(id)
		row := []string{iconArrow, d.Kind.String(), d.Request, "", ""}
		switch {
		case d.State == graph.DependencyFailed:
			row[0] = iconError
			row[4] = "failed"
			if d.Err != nil {
				row[4] = "failed: " + errors.UserMessage(d.Err)
			}
		default:
			target, ok := g.ResolvedModule(id)
			if !ok {
				row[4] = d.State.String()
				break
			}
			row[3] = target.Identity.Path
			row[4] = "active"
			if _, active := g.ConnectionByDependency(id); !active {
				row[4] = "inactive"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// incomingRows lists the active connections targeting module.
func incomingRows(g *graph.ModuleGraph, module graph.ModuleID) [][]string {
	conns := g.IncomingConnections(module)
	rows := make([][]string, 0, len(conns))
	for _, c := range conns {
		d, _ := g.Dependency(c.Dependency)
		origin := "(entry)"
		if o, ok := g.Module(c.Origin); ok {
			origin = o.Identity.Path
		}
		rows = append(rows, []string{iconBack, d.Kind.String(), d.Request, origin})
	}
	return rows
}

func connectionTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return indent(StyleDim.Render("no connections"))
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < len(rows) && strings.HasPrefix(rows[row][0], iconError) {
				return base.Foreground(colorRed)
			}
			if len(rows[row]) > 4 && rows[row][4] == "inactive" {
				return base.Foreground(colorDim)
			}
			return base
		})
	return indent(t.Render())
}

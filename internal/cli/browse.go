package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listFailedStyle   = lipgloss.NewStyle().Foreground(colorRed)
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
)

// browseCommand creates the interactive graph browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		pf    projectFlags
		start string
	)

	cmd := &cobra.Command{
		Use:   "browse [entries...]",
		Short: "Walk the module graph interactively",
		Long: `Browse builds the graph and opens a terminal browser on the first entry
module (or --module). Follow outgoing connections to dependencies and
incoming connections back to the modules that import them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, cacheCfg, err := pf.resolve(cmd, args)
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
			first := graph.NoModule
			if start != "" {
				mods := findModules(g, start)
				if len(mods) == 0 {
					return errors.New(errors.ErrCodeNotFound, "module %s is not in the graph", start)
				}
				first = mods[0].ID
			} else if entries := g.EntryConnections(); len(entries) > 0 {
				first = entries[0].Target
			}
			if first == graph.NoModule {
				return errors.New(errors.ErrCodeNotFound, "no entry resolved to a module")
			}

			_, err = tea.NewProgram(newBrowser(g, first), tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&start, "module", "m", "", "module to start from (default: first entry)")
	return cmd
}

// =============================================================================
// browser - Interactive module navigation
// =============================================================================

// browseRow is one connection line. target is NoModule for failed or
// unresolved requests.
type browseRow struct {
	kind    graph.Kind
	request string
	other   string // target path (outgoing) or origin path (incoming)
	status  string
	target  graph.ModuleID
}

// browser is the bubbletea model for walking the graph.
type browser struct {
	g        *graph.ModuleGraph
	current  graph.ModuleID
	history  []graph.ModuleID
	incoming bool
	rows     []browseRow
	cursor   int
	offset   int
	height   int
}

func newBrowser(g *graph.ModuleGraph, start graph.ModuleID) browser {
	b := browser{g: g, current: start, height: 15}
	b.load()
	return b
}

// load fills rows for the current module and direction.
func (b *browser) load() {
	b.rows = nil
	b.cursor, b.offset = 0, 0

	if b.incoming {
		for _, c := range b.g.IncomingConnections(b.current) {
			d, _ := b.g.Dependency(c.Dependency)
			row := browseRow{kind: d.Kind, request: d.Request, other: "(entry)", status: "active", target: graph.NoModule}
			if o, ok := b.g.Module(c.Origin); ok {
				row.other = o.Identity.Path
				row.target = o.ID
			}
			b.rows = append(b.rows, row)
		}
		return
	}

	m, _ := b.g.Module(b.current)
	for _, id := range m.Dependencies {
		d, _ := b.g.Dependency(id)
		row := browseRow{kind: d.Kind, request: d.Request, status: d.State.String(), target: graph.NoModule}
		if t, ok := b.g.ResolvedModule(id); ok {
			row.other = t.Identity.Path
			row.target = t.ID
			row.status = "active"
			if _, active := b.g.ConnectionByDependency(id); !active {
				row.status = "inactive"
			}
		} else if d.Err != nil {
			row.other = errors.UserMessage(d.Err)
		}
		b.rows = append(b.rows, row)
	}
}

func (b browser) Init() tea.Cmd {
	return nil
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
				if b.cursor < b.offset {
					b.offset = b.cursor
				}
			}
		case "down", "j":
			if b.cursor < len(b.rows)-1 {
				b.cursor++
				if b.cursor >= b.offset+b.height {
					b.offset = b.cursor - b.height + 1
				}
			}
		case "tab":
			b.incoming = !b.incoming
			b.load()
		case "enter", "right", "l":
			if len(b.rows) == 0 || b.rows[b.cursor].target == graph.NoModule {
				return b, nil
			}
			b.history = append(b.history, b.current)
			b.current = b.rows[b.cursor].target
			b.load()
		case "backspace", "left", "h":
			if n := len(b.history); n > 0 {
				b.current = b.history[n-1]
				b.history = b.history[:n-1]
				b.load()
			}
		}
	case tea.WindowSizeMsg:
		b.height = max(msg.Height-8, 5)
	}
	return b, nil
}

func (b browser) View() string {
	var s strings.Builder

	m, _ := b.g.Module(b.current)
	s.WriteString(StyleTitle.Render(m.Identity.Path))
	s.WriteString(" ")
	s.WriteString(listDimStyle.Render(fmt.Sprintf("(%s, %s)", m.Identity.Variant, m.State)))
	s.WriteString("\n")

	out, in := "outgoing", "incoming"
	if b.incoming {
		in = tabActiveStyle.Render(in)
		out = listDimStyle.Render(out)
	} else {
		out = tabActiveStyle.Render(out)
		in = listDimStyle.Render(in)
	}
	s.WriteString(out + "  " + in + "\n\n")

	if len(b.rows) == 0 {
		s.WriteString(listDimStyle.Render("  no connections"))
		s.WriteString("\n")
	}

	end := min(b.offset+b.height, len(b.rows))
	for i := b.offset; i < end; i++ {
		r := b.rows[i]
		cursor := "  "
		if i == b.cursor {
			cursor = "▸ "
		}
		arrow := iconArrow
		if b.incoming {
			arrow = iconBack
		}
		line := fmt.Sprintf("%s%-8s %-30s %s %s", cursor, r.kind, r.request, arrow, r.other)
		if r.status == "inactive" {
			line += " (inactive)"
		}

		switch {
		case i == b.cursor:
			s.WriteString(listSelectedStyle.Render(line))
		case r.target == graph.NoModule && !b.incoming:
			s.WriteString(listFailedStyle.Render(line))
		case r.status == "inactive":
			s.WriteString(listDimStyle.Render(line))
		default:
			s.WriteString(listNormalStyle.Render(line))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  depth %d", min(b.cursor+1, len(b.rows)), len(b.rows), len(b.history))))
	s.WriteString("\n")
	s.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ follow  ⌫ back  tab in/out  q quit"))
	return s.String()
}

// Package cli implements the modgraph command-line interface.
//
// Commands build the module graph of a JavaScript project, render it,
// answer connection queries, browse it interactively and serve it over
// HTTP. Project settings come from modgraph.toml and can be overridden
// with flags.
//
// # Commands
//
//   - build: Build the graph, report failures, optionally write the snapshot
//   - graph: Render the graph as DOT, SVG or snapshot JSON
//   - query: Print a module's outgoing and incoming connections
//   - browse: Walk the graph interactively
//   - serve: Serve the read-only query API
//   - cache: Manage the snapshot cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging through
// charmbracelet/log.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// isTerminal reports whether w is an interactive terminal. Progress
// spinners are only drawn on terminals.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

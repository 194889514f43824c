package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/pipeline"
)

// graphCommand creates the graph command for rendering the module graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		pf         projectFlags
		formatsStr string
		output     string
		detailed   bool
		inactive   bool
	)

	cmd := &cobra.Command{
		Use:   "graph [entries...]",
		Short: "Render the module graph as DOT, SVG or JSON",
		Long: `Graph builds the module graph and renders it.

  dot   Graphviz source (default)
  svg   rendered diagram, no Graphviz installation required
  json  the build snapshot

A single format is written to stdout unless --output is given. Several
formats need --output as a base path; each file gets the format's extension.`,
		Example: `  modgraph graph ./src/index.js > graph.dot
  modgraph graph -f svg,json -o build/graph --detailed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, cacheCfg, err := pf.resolve(cmd, args)
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			opts.Detailed = detailed
			opts.Inactive = inactive
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if len(opts.Formats) > 1 && output == "" {
				return fmt.Errorf("--output is required for multiple formats")
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

			if output == "" {
				_, err := cmd.OutOrStdout().Write(res.Artifacts[opts.Formats[0]])
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.buildSummary(res)
			for i, path := range outputPaths(output, opts.Formats) {
				if err := os.WriteFile(path, res.Artifacts[opts.Formats[i]], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				p.file(path)
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label modules with variant, state and hash, and draw failed requests")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "draw connections deactivated by optimizations")
	return cmd
}

// outputPaths maps each format to a file path. A single format uses output
// as given; several formats replace or add the extension per format.
func outputPaths(output string, formats []string) []string {
	if len(formats) == 1 {
		return []string{output}
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + "." + f
	}
	return paths
}

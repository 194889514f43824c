package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/graph"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		pf       projectFlags
		snapshot string
		baseline string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "build [entries...]",
		Short: "Build the module graph and report failures",
		Long: `Build resolves every entry request, loads each reachable module once and
links the module graph. Resolution and load failures are reported but do not
stop the build unless --bail is set.

With --incremental the snapshot of the previous build is read from the cache
and unchanged modules are reused instead of loaded again. --baseline plans
against a snapshot file written by --snapshot instead.`,
		Example: `  modgraph build ./src/index.js
  modgraph build -i --remove-available-modules
  modgraph build --baseline last.json -o next.json
  modgraph build --cache redis --redis-addr localhost:6379 ./src/main.ts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, cacheCfg, err := pf.resolve(cmd, args)
			if err != nil {
				return err
			}
			if baseline != "" {
				prev, err := graph.ReadSnapshotFile(baseline)
				if err != nil {
					return fmt.Errorf("read baseline: %w", err)
				}
				opts.Previous = prev
				opts.Incremental = true
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

			p := newPrinter(cmd.OutOrStdout())
			p.buildSummary(res)
			if len(res.Build.Pruned) > 0 {
				p.detail("%d modules no longer reachable", len(res.Build.Pruned))
			}

			if snapshot != "" {
				snap := res.Build.Snapshot()
				snap.Context = opts.Context
				if err := graph.WriteSnapshotFile(snap, snapshot); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				p.file(snapshot)
			}

			if strict {
				return res.Build.Errors.Err()
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&snapshot, "snapshot", "o", "", "also write the build snapshot to this file")
	cmd.Flags().StringVar(&baseline, "baseline", "", "reuse unchanged modules of this snapshot file")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any module failed")
	return cmd
}

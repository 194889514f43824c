package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/api"
	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may take on exit.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		pf   projectFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve [entries...]",
		Short: "Serve the module graph over a read-only HTTP API",
		Long: `Serve builds the graph and answers queries over HTTP:

  GET /modules, /modules/{id}, /modules/{id}/outgoing, /modules/{id}/incoming
  GET /dependencies/{id}, /errors, /stats, /health

Send SIGHUP to rebuild. Rebuilds are planned against the graph being served,
so only modules whose content or resolution changed are loaded again, with
or without a cache backend.`,
		Example: `  modgraph serve --addr :8080 ./src/index.js
  kill -HUP $(pgrep modgraph)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, cacheCfg, err := pf.resolve(cmd, args)
			if err != nil {
				return err
			}
			opts.Incremental = true

			runner, err := c.newRunner(ctx, cacheCfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := c.execute(ctx, runner, opts)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).buildSummary(res)

			srv := api.New(addr, res.Build, c.Logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			for {
				select {
				case err := <-errCh:
					return err
				case <-hup:
					next, err := runner.Execute(ctx, rebuildOptions(opts, srv.Result()))
					if err != nil {
						c.Logger.Error("rebuild failed, still serving previous build", "error", err)
						continue
					}
					srv.Update(next.Build)
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					c.Logger.Info("shutting down")
					return srv.Shutdown(shutdownCtx)
				}
			}
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// rebuildOptions plans the next build against the served result.
func rebuildOptions(opts pipeline.Options, served *build.Result) pipeline.Options {
	prev := served.Snapshot()
	prev.Context = opts.Context
	opts.Previous = prev
	return opts
}

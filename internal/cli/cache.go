package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var (
		pf      projectFlags
		project bool
	)

	cmd := &cobra.Command{
		Use:   "clear [entries...]",
		Short: "Clear cached snapshots and artifacts",
		Long: `Clear removes everything from the local file cache. With --project only the
snapshot of the current project is deleted, on whichever backend is
configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())

			if project {
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

				key := runner.SnapshotKey(opts)
				if err := runner.Cache.Delete(ctx, key); err != nil {
					return fmt.Errorf("delete snapshot: %w", err)
				}
				p.success("Cleared project snapshot")
				p.detail("Key: %s", key)
				return nil
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			p.success("Cleared cache")
			p.detail("Directory: %s", fc.Dir())
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&project, "project", false, "only delete the current project's snapshot")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

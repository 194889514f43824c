package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modgraph/pkg/pipeline"
)

// projectFlags are the flags shared by every command that builds a graph.
// Values given on the command line override modgraph.toml.
type projectFlags struct {
	root            string
	config          string
	context         string
	parallelism     int
	bail            bool
	removeAvailable bool
	incremental     bool
	refresh         bool
	cacheBackend    string
	redisAddr       string
	mongoURI        string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.root, "root", "C", ".", "project directory")
	fl.StringVar(&f.config, "config", "", "project file (default: <root>/modgraph.toml)")
	fl.StringVar(&f.context, "context", "", "module path entries resolve against (default: /)")
	fl.IntVarP(&f.parallelism, "parallelism", "j", 0, "concurrent resolve/load operations (default: number of CPUs)")
	fl.BoolVar(&f.bail, "bail", false, "abort on the first resolution or load failure")
	fl.BoolVar(&f.removeAvailable, "remove-available-modules", false, "deactivate connections to modules already loaded by every parent")
	fl.BoolVarP(&f.incremental, "incremental", "i", false, "reuse unchanged modules from the previous build")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore the stored snapshot and rebuild everything")
	fl.StringVar(&f.cacheBackend, "cache", "", "snapshot cache: file (default), redis, mongo, none")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "redis address for --cache redis")
	fl.StringVar(&f.mongoURI, "mongo-uri", "", "mongodb URI for --cache mongo")
}

// resolve merges the project file with the command line into pipeline
// options. Positional args are entry requests; without them the entries of
// the project file are used.
func (f *projectFlags) resolve(cmd *cobra.Command, args []string) (pipeline.Options, CacheConfig, error) {
	root, err := filepath.Abs(f.root)
	if err != nil {
		return pipeline.Options{}, CacheConfig{}, fmt.Errorf("project root: %w", err)
	}
	cfg, err := loadConfig(root, f.config)
	if err != nil {
		return pipeline.Options{}, CacheConfig{}, err
	}

	changed := cmd.Flags().Changed
	if changed("context") {
		cfg.Context = f.context
	}
	if changed("parallelism") {
		cfg.Parallelism = f.parallelism
	}
	if changed("bail") {
		cfg.Bail = f.bail
	}
	if changed("remove-available-modules") {
		cfg.Optimization.RemoveAvailableModules = f.removeAvailable
	}
	if changed("incremental") {
		cfg.Incremental = f.incremental
	}
	if changed("cache") {
		cfg.Cache.Backend = f.cacheBackend
	}
	if changed("redis-addr") {
		cfg.Cache.RedisAddr = f.redisAddr
	}
	if changed("mongo-uri") {
		cfg.Cache.MongoURI = f.mongoURI
	}
	if len(args) > 0 {
		cfg.Entries = args
	}
	if err := cfg.validate(); err != nil {
		return pipeline.Options{}, CacheConfig{}, err
	}
	if cfg.Context == "" {
		cfg.Context = pipeline.DefaultContext
	}

	opts := pipeline.Options{
		Root:                   root,
		Context:                cfg.Context,
		Entries:                cfg.Entries,
		Parallelism:            cfg.Parallelism,
		Bail:                   cfg.Bail,
		RemoveAvailableModules: cfg.Optimization.RemoveAvailableModules,
		Incremental:            cfg.Incremental,
		Refresh:                f.refresh,
		SnapshotTTL:            cfg.Cache.TTL.Duration,
	}
	return opts, cfg.Cache, nil
}

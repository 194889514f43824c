package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache backends selectable in modgraph.toml and with --cache.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// Config is the content of a modgraph.toml project file.
//
//	context = "/"
//	entries = ["./src/index.js"]
//	parallelism = 8
//	incremental = true
//
//	[optimization]
//	remove_available_modules = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "72h"
type Config struct {
	Context      string             `toml:"context"`
	Entries      []string           `toml:"entries"`
	Parallelism  int                `toml:"parallelism"`
	Bail         bool               `toml:"bail"`
	Incremental  bool               `toml:"incremental"`
	Optimization OptimizationConfig `toml:"optimization"`
	Cache        CacheConfig        `toml:"cache"`
}

// OptimizationConfig holds graph optimizations applied after a build.
type OptimizationConfig struct {
	RemoveAvailableModules bool `toml:"remove_available_modules"`
}

// CacheConfig selects and configures the snapshot cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"` // file (default), redis, mongo, none
	RedisAddr string   `toml:"redis_addr"`
	MongoURI  string   `toml:"mongo_uri"`
	Prefix    string   `toml:"prefix"` // key prefix for shared backends
	TTL       duration `toml:"ttl"`
}

// duration reads Go duration strings ("72h") from TOML.
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// loadConfig reads the project file at path. When path is empty the default
// file in root is used if it exists; a missing default file yields an empty
// configuration.
func loadConfig(root, path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, defaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	case backendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New("cache.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Parallelism < 0 {
		return errors.New("parallelism cannot be negative")
	}
	return nil
}

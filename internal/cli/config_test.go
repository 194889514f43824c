package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const sampleConfig = `
context = "/"
entries = ["./src/index.js", "./src/worker.js"]
parallelism = 8
incremental = true

[optimization]
remove_available_modules = true

[cache]
backend = "redis"
redis_addr = "localhost:6379"
prefix = "ci:"
ttl = "72h"
`

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, defaultConfigFile, sampleConfig)

	cfg, err := loadConfig(root, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Entries) != 2 || cfg.Parallelism != 8 || !cfg.Incremental {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Optimization.RemoveAvailableModules {
		t.Error("optimization table not decoded")
	}
	if cfg.Cache.Backend != backendRedis || cfg.Cache.Prefix != "ci:" || cfg.Cache.TTL.Duration != 72*time.Hour {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	root := t.TempDir()

	cfg, err := loadConfig(root, "")
	if err != nil {
		t.Fatalf("missing default file should be fine: %v", err)
	}
	if len(cfg.Entries) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}

	if _, err := loadConfig(root, filepath.Join(root, "other.toml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", `entries = [`, "parse"},
		{"backend", "[cache]\nbackend = \"s3\"", "unknown cache backend"},
		{"redis addr", "[cache]\nbackend = \"redis\"", "redis_addr"},
		{"mongo uri", "[cache]\nbackend = \"mongo\"", "mongo_uri"},
		{"ttl", "[cache]\nttl = \"soon\"", "parse"},
		{"parallelism", `parallelism = -1`, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := writeFile(t, root, "modgraph.toml", tt.content)
			_, err := loadConfig(root, path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestProjectFlagsOverrideConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, defaultConfigFile, sampleConfig)

	var pf projectFlags
	cmd := &cobra.Command{Use: "test"}
	pf.register(cmd)
	if err := cmd.ParseFlags([]string{"-C", root, "-j", "2", "--cache", "none", "--refresh"}); err != nil {
		t.Fatal(err)
	}

	opts, cacheCfg, err := pf.resolve(cmd, []string{"./src/other.js"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.Root != root || opts.Parallelism != 2 || !opts.Refresh {
		t.Errorf("flags not applied: %+v", opts)
	}
	if len(opts.Entries) != 1 || opts.Entries[0] != "./src/other.js" {
		t.Errorf("args should replace config entries: %v", opts.Entries)
	}
	if !opts.Incremental || !opts.RemoveAvailableModules || opts.SnapshotTTL != 72*time.Hour {
		t.Errorf("config values lost: %+v", opts)
	}
	if cacheCfg.Backend != backendNone {
		t.Errorf("cache backend = %q, want none", cacheCfg.Backend)
	}
}

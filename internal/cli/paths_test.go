package cli

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"dot"}},
		{"svg", []string{"svg"}},
		{"svg,json", []string{"svg", "json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		output  string
		formats []string
		want    []string
	}{
		{"graph.txt", []string{"dot"}, []string{"graph.txt"}},
		{"out/graph", []string{"dot", "svg"}, []string{"out/graph.dot", "out/graph.svg"}},
		{"out/graph.svg", []string{"svg", "json"}, []string{"out/graph.svg", "out/graph.json"}},
	}
	for _, tt := range tests {
		if got := outputPaths(tt.output, tt.formats); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("outputPaths(%q, %v) = %v, want %v", tt.output, tt.formats, got, tt.want)
		}
	}
}

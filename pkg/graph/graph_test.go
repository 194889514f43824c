package graph

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshot(t *testing.T) {
	s, _, _ := diamond(t)
	snap := Seal(s.Compact()).Snapshot()

	if snap.Version != SnapshotVersion {
		t.Errorf("Version = %d, want %d", snap.Version, SnapshotVersion)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Target == nil || snap.Entries[0].Target.Path != "/src/a.js" {
		t.Fatalf("Entries = %+v", snap.Entries)
	}
	if len(snap.Modules) != 4 {
		t.Fatalf("Modules = %d, want 4", len(snap.Modules))
	}

	var a SnapshotModule
	for _, m := range snap.Modules {
		if m.Identity == ident("/src/a.js") {
			a = m
		}
	}
	if len(a.Dependencies) != 3 {
		t.Fatalf("a has %d dependencies, want 3", len(a.Dependencies))
	}
	if a.Dependencies[2].Target != nil {
		t.Errorf("failed dependency should have no target: %+v", a.Dependencies[2])
	}
	if a.Dependencies[1].Kind != KindDynamic {
		t.Errorf("Kind = %v, want dynamic", a.Dependencies[1].Kind)
	}

	rev := snap.Dependents()
	if got := len(rev[ident("/src/d.js")]); got != 2 {
		t.Errorf("dependents of d = %d, want 2", got)
	}
	if got := len(rev[ident("/src/a.js")]); got != 1 {
		t.Errorf("dependents of a = %d, want 1 (entries don't count)", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _, _ := diamond(t)
	snap := Seal(s).Snapshot()

	data, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	if !strings.Contains(string(data), `"kind": "dynamic"`) {
		t.Errorf("kinds should serialize by name:\n%s", data)
	}

	got, err := ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got.Modules) != len(snap.Modules) {
		t.Fatalf("Modules = %d, want %d", len(got.Modules), len(snap.Modules))
	}
	for i := range got.Modules {
		if got.Modules[i].Identity != snap.Modules[i].Identity {
			t.Errorf("module %d identity = %v, want %v", i, got.Modules[i].Identity, snap.Modules[i].Identity)
		}
		if got.Modules[i].State != snap.Modules[i].State {
			t.Errorf("module %d state = %v, want %v", i, got.Modules[i].State, snap.Modules[i].State)
		}
	}
}

func TestSnapshotFile(t *testing.T) {
	s, _, _ := diamond(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")

	if err := WriteSnapshotFile(Seal(s).Snapshot(), path); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	got, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatalf("ReadSnapshotFile: %v", err)
	}
	if len(got.Modules) != 4 {
		t.Errorf("Modules = %d, want 4", len(got.Modules))
	}

	if _, err := ReadSnapshotFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadSnapshotFile on a missing file should fail")
	}
}

func TestReadSnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantVer bool
	}{
		{"invalid JSON", `{not json`, false},
		{"wrong version", `{"version": 99, "entries": [], "modules": []}`, true},
		{"bad kind", `{"version": 1, "entries": [{"request": "x", "index": 0, "kind": "weird"}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantVer != errors.Is(err, ErrSnapshotVersion) {
				t.Errorf("errors.Is(err, ErrSnapshotVersion) = %v, want %v", !tt.wantVer, tt.wantVer)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		in   Identity
		want string
	}{
		{Identity{Path: "/a.js", Variant: "javascript/esm"}, "javascript/esm|/a.js"},
		{Identity{Path: "/a.js"}, "/a.js"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if back := ParseIdentity(tt.want); back != tt.in {
			t.Errorf("ParseIdentity(%q) = %v, want %v", tt.want, back, tt.in)
		}
	}
}

package graph

import (
	"fmt"
	"strings"

	"github.com/matzehuels/modgraph/pkg/errors"
)

// ModuleID is a dense handle into the module arena of a [Store].
// Handles are only meaningful for the store (or graph) that issued them.
type ModuleID uint32

// DependencyID is a dense handle into the dependency arena of a [Store].
type DependencyID uint32

// NoModule is the origin of entry dependencies, which have no owning module.
const NoModule ModuleID = ^ModuleID(0)

// Identity is the stable, build-independent identity of a module: the
// resolved path plus the variant assigned by the resolver (for example
// "javascript/esm" or "json"). Two requests that resolve to the same
// Identity share one module.
type Identity struct {
	Path    string `json:"path"`
	Variant string `json:"variant,omitempty"`
}

// String returns the canonical "variant|path" form.
func (i Identity) String() string {
	if i.Variant == "" {
		return i.Path
	}
	return i.Variant + "|" + i.Path
}

// ParseIdentity is the inverse of [Identity.String].
func ParseIdentity(s string) Identity {
	if variant, path, ok := strings.Cut(s, "|"); ok {
		return Identity{Path: path, Variant: variant}
	}
	return Identity{Path: s}
}

// IsZero reports whether i is the zero Identity.
func (i Identity) IsZero() bool { return i.Path == "" }

// Kind classifies a dependency.
type Kind uint8

const (
	KindStatic  Kind = iota // import ... from "x", export ... from "x", import "x"
	KindDynamic             // import("x")
	KindRequire             // require("x")
	KindEntry               // synthetic dependency for a configured entry
)

var kindNames = [...]string{"static", "dynamic", "require", "entry"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown dependency kind %q", b)
}

// IsAsync reports whether the dependency starts a separately loaded block.
func (k Kind) IsAsync() bool { return k == KindDynamic }

// ModuleState is the build state of a module.
//
// A module moves Discovered → Resolving → Loading → Linking → Built.
// Resolving is the re-validation step for modules carried over from a
// previous build; fresh modules go from Discovered straight to Loading, and
// reused modules skip Loading. Errored is reachable from the first three.
type ModuleState uint8

const (
	StateDiscovered ModuleState = iota
	StateResolving
	StateLoading
	StateLinking
	StateBuilt
	StateErrored
)

var stateNames = [...]string{"discovered", "resolving", "loading", "linking", "built", "errored"}

func (s ModuleState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s ModuleState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ModuleState) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = ModuleState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown module state %q", b)
}

// transitions lists the legal module state changes.
var transitions = map[ModuleState][]ModuleState{
	StateDiscovered: {StateResolving, StateLoading, StateErrored},
	StateResolving:  {StateLoading, StateLinking, StateErrored},
	StateLoading:    {StateLinking, StateErrored},
	StateLinking:    {StateBuilt},
}

func canTransition(from, to ModuleState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DependencyState is the linkage state of a dependency.
type DependencyState uint8

const (
	DependencyUnlinked DependencyState = iota
	DependencyLinked
	DependencyFailed
)

func (s DependencyState) String() string {
	switch s {
	case DependencyUnlinked:
		return "unlinked"
	case DependencyLinked:
		return "linked"
	case DependencyFailed:
		return "failed"
	}
	return fmt.Sprintf("dependency-state(%d)", s)
}

// Module is a compiled unit.
//
// Dependencies lists the module's own dependencies ordered by source
// position. The slice is owned by the store; treat it as read-only.
type Module struct {
	ID           ModuleID
	Identity     Identity
	Fingerprint  string
	State        ModuleState
	Dependencies []DependencyID
	Err          *errors.Error
	// Reused is set when the module was carried over from a previous build
	// without being loaded again.
	Reused bool
}

// Dependency is one import/require occurrence, or a synthetic entry.
type Dependency struct {
	ID      DependencyID
	Origin  ModuleID // NoModule for entries
	Request string
	Index   int // source-position index within Origin (entry position for entries)
	Kind    Kind
	State   DependencyState
	Err     *errors.Error
}

// IsEntry reports whether d is a synthetic entry dependency.
func (d Dependency) IsEntry() bool { return d.Origin == NoModule }

// Connection is the resolved edge from a dependency to its target module.
type Connection struct {
	Dependency DependencyID
	Origin     ModuleID // NoModule for entries
	Target     ModuleID
	Active     bool
}

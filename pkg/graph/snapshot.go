package graph

// SnapshotVersion is bumped whenever the snapshot layout changes. Readers
// reject snapshots with a different version.
const SnapshotVersion = 1

// Snapshot is the canonical, handle-free record of a finished build.
// Everything is keyed by [Identity], so a snapshot can be compared with a
// later build whose handles differ. It is what the incremental reuse
// controller reads and what the CLI persists between runs.
type Snapshot struct {
	Version int                  `json:"version"`
	Context string               `json:"context,omitempty"`
	Entries []SnapshotDependency `json:"entries"`
	Modules []SnapshotModule     `json:"modules"`
}

// SnapshotModule is one module of a [Snapshot].
type SnapshotModule struct {
	Identity     Identity             `json:"identity"`
	Fingerprint  string               `json:"fingerprint,omitempty"`
	State        ModuleState          `json:"state"`
	Error        string               `json:"error,omitempty"`
	Dependencies []SnapshotDependency `json:"dependencies,omitempty"`
}

// SnapshotDependency is one dependency of a [Snapshot]. Target is nil for
// dependencies that failed to resolve.
type SnapshotDependency struct {
	Request string    `json:"request"`
	Index   int       `json:"index"`
	Kind    Kind      `json:"kind"`
	Target  *Identity `json:"target,omitempty"`
	Active  bool      `json:"active,omitempty"`
}

// Snapshot captures g. Modules appear in handle order.
func (g *ModuleGraph) Snapshot() *Snapshot {
	s := g.store
	snap := &Snapshot{
		Version: SnapshotVersion,
		Entries: make([]SnapshotDependency, 0, len(s.entries)),
		Modules: make([]SnapshotModule, 0, len(s.modules)),
	}
	for _, d := range s.entries {
		snap.Entries = append(snap.Entries, s.snapshotDependency(d))
	}
	for _, m := range s.modules {
		sm := SnapshotModule{
			Identity:    m.Identity,
			Fingerprint: m.Fingerprint,
			State:       m.State,
		}
		if m.Err != nil {
			sm.Error = m.Err.Error()
		}
		for _, d := range m.Dependencies {
			sm.Dependencies = append(sm.Dependencies, s.snapshotDependency(d))
		}
		snap.Modules = append(snap.Modules, sm)
	}
	return snap
}

func (s *Store) snapshotDependency(id DependencyID) SnapshotDependency {
	d := s.deps[id]
	sd := SnapshotDependency{Request: d.Request, Index: d.Index, Kind: d.Kind}
	if c := s.conns[id]; c != nil {
		target := s.modules[c.Target].Identity
		sd.Target = &target
		sd.Active = c.Active
	}
	return sd
}

// Dependents returns, for every module, the identities of the modules
// that depend on it. Entries contribute nothing. This is the reverse
// adjacency used to propagate staleness.
func (s *Snapshot) Dependents() map[Identity][]Identity {
	rev := make(map[Identity][]Identity)
	for _, m := range s.Modules {
		for _, d := range m.Dependencies {
			if d.Target != nil {
				rev[*d.Target] = append(rev[*d.Target], m.Identity)
			}
		}
	}
	return rev
}

package graph

import (
	"slices"

	"github.com/matzehuels/modgraph/pkg/errors"
)

// Store is the arena that owns every module, dependency and connection of
// one build. Modules and dependencies live in dense tables indexed by their
// handles; cross references are always handles, so cycles need no special
// treatment.
//
// All mutations are idempotent when repeated with identical arguments.
// A mutation that would break an invariant returns an error with code
// [errors.ErrCodeInvariant] and leaves the store unchanged.
//
// Store is not safe for concurrent use. The builder serializes every
// mutation through a single goroutine.
type Store struct {
	modules []*Module
	deps    []*Dependency
	conns   []*Connection    // by DependencyID, nil while unresolved
	inbound [][]DependencyID // by ModuleID, every connection targeting the module

	byIdentity map[Identity]ModuleID
	depKeys    map[depKey]DependencyID
	entries    []DependencyID // ordered by entry index
}

type depKey struct {
	origin ModuleID
	index  int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byIdentity: make(map[Identity]ModuleID),
		depKeys:    make(map[depKey]DependencyID),
	}
}

// CreateModule returns the module for identity, creating it in the
// Discovered state if it does not exist yet. created reports whether a new
// record was made; this is the builder's dedupe check.
func (s *Store) CreateModule(identity Identity) (id ModuleID, created bool, err error) {
	if identity.IsZero() {
		return 0, false, errors.Invariant("module identity must have a path")
	}
	if id, ok := s.byIdentity[identity]; ok {
		return id, false, nil
	}
	id = ModuleID(len(s.modules))
	s.modules = append(s.modules, &Module{ID: id, Identity: identity})
	s.inbound = append(s.inbound, nil)
	s.byIdentity[identity] = id
	return id, true, nil
}

// CreateDependency records the dependency at source position index inside
// origin. Pass [NoModule] as origin for entry dependencies. Repeating the
// call with the same arguments returns the existing handle; reusing a
// position with a different request or kind is an invariant violation.
func (s *Store) CreateDependency(origin ModuleID, index int, request string, kind Kind) (DependencyID, error) {
	if origin != NoModule && !s.hasModule(origin) {
		return 0, errors.Invariant("dependency %q: unknown origin module %d", request, origin)
	}
	if (origin == NoModule) != (kind == KindEntry) {
		return 0, errors.Invariant("dependency %q: entry kind requires no origin", request)
	}
	if index < 0 {
		return 0, errors.Invariant("dependency %q: negative source index %d", request, index)
	}

	key := depKey{origin: origin, index: index}
	if id, ok := s.depKeys[key]; ok {
		d := s.deps[id]
		if d.Request != request || d.Kind != kind {
			return 0, errors.Invariant("dependency %d at index %d already exists with request %q", id, index, d.Request)
		}
		return id, nil
	}

	id := DependencyID(len(s.deps))
	s.deps = append(s.deps, &Dependency{
		ID:      id,
		Origin:  origin,
		Request: request,
		Index:   index,
		Kind:    kind,
	})
	s.conns = append(s.conns, nil)
	s.depKeys[key] = id

	if origin == NoModule {
		s.entries = s.insertOrdered(s.entries, id)
	} else {
		m := s.modules[origin]
		m.Dependencies = s.insertOrdered(m.Dependencies, id)
	}
	return id, nil
}

// insertOrdered keeps a dependency list sorted by source index.
func (s *Store) insertOrdered(list []DependencyID, id DependencyID) []DependencyID {
	idx := s.deps[id].Index
	pos, _ := slices.BinarySearchFunc(list, idx, func(d DependencyID, target int) int {
		return s.deps[d].Index - target
	})
	return slices.Insert(list, pos, id)
}

// SetConnection links dependency to target. The connection starts active.
// Linking the same pair twice is a no-op; relinking a dependency to a
// different module, or linking a failed dependency, is a violation.
func (s *Store) SetConnection(dependency DependencyID, target ModuleID) error {
	if !s.hasDependency(dependency) {
		return errors.Invariant("connection: unknown dependency %d", dependency)
	}
	if !s.hasModule(target) {
		return errors.Invariant("connection: dependency %d targets unknown module %d", dependency, target)
	}
	d := s.deps[dependency]
	if c := s.conns[dependency]; c != nil {
		if c.Target != target {
			return errors.Invariant("connection: dependency %d already targets module %d", dependency, c.Target)
		}
		return nil
	}
	if d.State == DependencyFailed {
		return errors.Invariant("connection: dependency %d already failed", dependency)
	}

	s.conns[dependency] = &Connection{
		Dependency: dependency,
		Origin:     d.Origin,
		Target:     target,
		Active:     true,
	}
	s.inbound[target] = append(s.inbound[target], dependency)
	d.State = DependencyLinked
	return nil
}

// DeactivateConnection marks the connection of dependency inactive. The
// connection stays in the store and can be restored with
// [Store.ReactivateConnection].
func (s *Store) DeactivateConnection(dependency DependencyID) error {
	return s.setActive(dependency, false)
}

// ReactivateConnection undoes [Store.DeactivateConnection].
func (s *Store) ReactivateConnection(dependency DependencyID) error {
	return s.setActive(dependency, true)
}

func (s *Store) setActive(dependency DependencyID, active bool) error {
	if !s.hasDependency(dependency) {
		return errors.Invariant("connection: unknown dependency %d", dependency)
	}
	c := s.conns[dependency]
	if c == nil {
		return errors.Invariant("connection: dependency %d is not linked", dependency)
	}
	c.Active = active
	return nil
}

// ReactivateAll restores every deactivated connection.
func (s *Store) ReactivateAll() {
	for _, c := range s.conns {
		if c != nil {
			c.Active = true
		}
	}
}

// FailDependency records a resolution failure on dependency.
func (s *Store) FailDependency(dependency DependencyID, cause *errors.Error) error {
	if !s.hasDependency(dependency) {
		return errors.Invariant("fail: unknown dependency %d", dependency)
	}
	if s.conns[dependency] != nil {
		return errors.Invariant("fail: dependency %d is already linked", dependency)
	}
	d := s.deps[dependency]
	d.State = DependencyFailed
	d.Err = cause
	return nil
}

// SetModuleState moves module to state. Setting the current state again is
// a no-op; transitions outside the module state machine are violations.
func (s *Store) SetModuleState(module ModuleID, state ModuleState) error {
	if !s.hasModule(module) {
		return errors.Invariant("state: unknown module %d", module)
	}
	m := s.modules[module]
	if m.State == state {
		return nil
	}
	if !canTransition(m.State, state) {
		return errors.Invariant("state: module %s can't move from %s to %s", m.Identity, m.State, state)
	}
	m.State = state
	return nil
}

// FailModule moves module to Errored and attaches cause.
func (s *Store) FailModule(module ModuleID, cause *errors.Error) error {
	if err := s.SetModuleState(module, StateErrored); err != nil {
		return err
	}
	s.modules[module].Err = cause
	return nil
}

// SetFingerprint records the content fingerprint of module.
func (s *Store) SetFingerprint(module ModuleID, fingerprint string) error {
	if !s.hasModule(module) {
		return errors.Invariant("fingerprint: unknown module %d", module)
	}
	m := s.modules[module]
	if m.State == StateBuilt && m.Fingerprint != fingerprint {
		return errors.Invariant("fingerprint: module %s is already built", m.Identity)
	}
	m.Fingerprint = fingerprint
	return nil
}

// MarkReused flags module as carried over from a previous build.
func (s *Store) MarkReused(module ModuleID) error {
	if !s.hasModule(module) {
		return errors.Invariant("reuse: unknown module %d", module)
	}
	s.modules[module].Reused = true
	return nil
}

// Module returns the module record for id.
func (s *Store) Module(id ModuleID) (Module, bool) {
	if !s.hasModule(id) {
		return Module{}, false
	}
	return *s.modules[id], true
}

// ModuleByIdentity looks a module up by its stable identity.
func (s *Store) ModuleByIdentity(identity Identity) (ModuleID, bool) {
	id, ok := s.byIdentity[identity]
	return id, ok
}

// Dependency returns the dependency record for id.
func (s *Store) Dependency(id DependencyID) (Dependency, bool) {
	if !s.hasDependency(id) {
		return Dependency{}, false
	}
	return *s.deps[id], true
}

// Connection returns the connection of dependency whether or not it is
// active.
func (s *Store) Connection(dependency DependencyID) (Connection, bool) {
	if !s.hasDependency(dependency) || s.conns[dependency] == nil {
		return Connection{}, false
	}
	return *s.conns[dependency], true
}

// Entries returns the entry dependencies in entry order.
func (s *Store) Entries() []DependencyID { return s.entries }

// ModuleCount returns the number of modules.
func (s *Store) ModuleCount() int { return len(s.modules) }

// DependencyCount returns the number of dependencies, entries included.
func (s *Store) DependencyCount() int { return len(s.deps) }

// ConnectionCount returns the number of connections, active or not.
func (s *Store) ConnectionCount() int {
	n := 0
	for _, c := range s.conns {
		if c != nil {
			n++
		}
	}
	return n
}

func (s *Store) hasModule(id ModuleID) bool {
	return id != NoModule && int(id) < len(s.modules)
}

func (s *Store) hasDependency(id DependencyID) bool {
	return int(id) < len(s.deps)
}

// Validate checks every structural invariant and returns the first
// violation found. It runs in O(modules + dependencies).
func (s *Store) Validate() error {
	for id, c := range s.conns {
		if c == nil {
			continue
		}
		d := s.deps[id]
		if !s.hasModule(c.Target) {
			return errors.Invariant("connection %d targets unknown module %d", id, c.Target)
		}
		if c.Origin != d.Origin {
			return errors.Invariant("connection %d origin %d differs from dependency origin %d", id, c.Origin, d.Origin)
		}
		if !slices.Contains(s.inbound[c.Target], DependencyID(id)) {
			return errors.Invariant("connection %d missing from incoming index of module %d", id, c.Target)
		}
	}
	for _, m := range s.modules {
		for i, dep := range m.Dependencies {
			if s.deps[dep].Origin != m.ID {
				return errors.Invariant("module %s lists foreign dependency %d", m.Identity, dep)
			}
			if i > 0 && s.deps[m.Dependencies[i-1]].Index >= s.deps[dep].Index {
				return errors.Invariant("module %s dependencies out of source order", m.Identity)
			}
		}
	}
	return nil
}

package api

import (
	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
)

// ModuleResponse is the JSON form of a module.
type ModuleResponse struct {
	ID           graph.ModuleID       `json:"id"`
	Path         string               `json:"path"`
	Variant      string               `json:"variant,omitempty"`
	State        graph.ModuleState    `json:"state"`
	Fingerprint  string               `json:"fingerprint,omitempty"`
	Reused       bool                 `json:"reused,omitempty"`
	Error        string               `json:"error,omitempty"`
	Dependencies []graph.DependencyID `json:"dependencies"`
}

// DependencyResponse is the JSON form of a dependency. Origin is omitted
// for entries.
type DependencyResponse struct {
	ID      graph.DependencyID `json:"id"`
	Origin  *graph.ModuleID    `json:"origin,omitempty"`
	Index   int                `json:"index"`
	Request string             `json:"request"`
	Kind    graph.Kind         `json:"kind"`
	State   string             `json:"state"`
	Error   string             `json:"error,omitempty"`

	Connection *ConnectionResponse `json:"connection,omitempty"`
	Module     *ModuleResponse     `json:"module,omitempty"`
}

// ConnectionResponse is the JSON form of a connection.
type ConnectionResponse struct {
	Dependency graph.DependencyID `json:"dependency"`
	Origin     *graph.ModuleID    `json:"origin,omitempty"`
	Target     graph.ModuleID     `json:"target"`
	Active     bool               `json:"active"`
}

// ErrorResponse is the JSON form of a build failure or a request error.
type ErrorResponse struct {
	Code    errors.Code `json:"error"`
	Message string      `json:"message"`
	Module  string      `json:"module,omitempty"`
	Request string      `json:"request,omitempty"`
}

// StatsResponse is the JSON form of [build.Stats].
type StatsResponse struct {
	BuildID           string `json:"build_id"`
	Modules           int    `json:"modules"`
	Dependencies      int    `json:"dependencies"`
	Connections       int    `json:"connections"`
	ActiveConnections int    `json:"active_connections"`
	Reused            int    `json:"reused"`
	Removed           int    `json:"removed"`
	Errors            int    `json:"errors"`
	DurationMS        int64  `json:"duration_ms"`
}

func moduleResponse(m graph.Module) ModuleResponse {
	r := ModuleResponse{
		ID:           m.ID,
		Path:         m.Identity.Path,
		Variant:      m.Identity.Variant,
		State:        m.State,
		Fingerprint:  m.Fingerprint,
		Reused:       m.Reused,
		Dependencies: m.Dependencies,
	}
	if r.Dependencies == nil {
		r.Dependencies = []graph.DependencyID{}
	}
	if m.Err != nil {
		r.Error = errors.UserMessage(m.Err)
	}
	return r
}

func dependencyResponse(d graph.Dependency) DependencyResponse {
	r := DependencyResponse{
		ID:      d.ID,
		Origin:  originOf(d.Origin),
		Index:   d.Index,
		Request: d.Request,
		Kind:    d.Kind,
		State:   d.State.String(),
	}
	if d.Err != nil {
		r.Error = errors.UserMessage(d.Err)
	}
	return r
}

func connectionResponse(c graph.Connection) ConnectionResponse {
	return ConnectionResponse{
		Dependency: c.Dependency,
		Origin:     originOf(c.Origin),
		Target:     c.Target,
		Active:     c.Active,
	}
}

func errorResponse(e *errors.Error) ErrorResponse {
	return ErrorResponse{
		Code:    e.Code,
		Message: errors.UserMessage(e),
		Module:  e.Module,
		Request: e.Request,
	}
}

func statsResponse(res *build.Result) StatsResponse {
	s := res.Stats
	return StatsResponse{
		BuildID:           res.BuildID,
		Modules:           s.Modules,
		Dependencies:      s.Dependencies,
		Connections:       s.Connections,
		ActiveConnections: s.ActiveConnections,
		Reused:            s.Reused,
		Removed:           s.Removed,
		Errors:            len(res.Errors),
		DurationMS:        s.Duration.Milliseconds(),
	}
}

func originOf(id graph.ModuleID) *graph.ModuleID {
	if id == graph.NoModule {
		return nil
	}
	return &id
}

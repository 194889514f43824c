package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/modgraph/pkg/build"
	"github.com/matzehuels/modgraph/pkg/buildinfo"
	"github.com/matzehuels/modgraph/pkg/errors"
	"github.com/matzehuels/modgraph/pkg/graph"
	"github.com/matzehuels/modgraph/pkg/observability"
)

// Server serves the current build result. The result can be replaced while
// the server is running; every request sees one consistent build.
type Server struct {
	current    atomic.Pointer[build.Result]
	logger     *log.Logger
	httpServer *http.Server
}

// New creates a server for res listening on addr. A nil logger uses
// log.Default().
func New(addr string, res *build.Result, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{logger: logger}
	s.current.Store(res)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Update replaces the served build result.
func (s *Server) Update(res *build.Result) {
	s.current.Store(res)
	s.logger.Info("serving new build", "build", res.BuildID, "modules", res.Stats.Modules)
}

// Result returns the build result currently served.
func (s *Server) Result() *build.Result { return s.current.Load() }

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.hooks)

	r.Get("/health", s.health)
	r.Get("/stats", s.stats)
	r.Get("/errors", s.errors)

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", s.listModules)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getModule)
			r.Get("/outgoing", s.outgoing)
			r.Get("/incoming", s.incoming)
		})
	})
	r.Get("/dependencies/{id}", s.getDependency)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New(errors.ErrCodeInvalidInput, "method %s not allowed", r.Method))
	})
	return r
}

// hooks reports every request to the registered HTTP hooks and logs it at
// debug level.
func (s *Server) hooks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h := observability.HTTP()
		h.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		h.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", dur)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"build":   s.Result().BuildID,
		"version": buildinfo.Short(),
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse(s.Result()))
}

func (s *Server) errors(w http.ResponseWriter, r *http.Request) {
	res := s.Result()
	out := make([]ErrorResponse, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, errorResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	g := s.Result().Graph
	path, variant := r.URL.Query().Get("path"), r.URL.Query().Get("variant")

	out := []ModuleResponse{}
	for _, m := range g.Modules() {
		if path != "" && m.Identity.Path != path {
			continue
		}
		if variant != "" && m.Identity.Variant != variant {
			continue
		}
		out = append(out, moduleResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getModule(w http.ResponseWriter, r *http.Request) {
	g := s.Result().Graph
	m, ok := s.module(w, r, g)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(m))
}

// outgoing serves the active outgoing connections keyed by dependency ID,
// or as a list in source order when ?ordered=true.
func (s *Server) outgoing(w http.ResponseWriter, r *http.Request) {
	g := s.Result().Graph
	m, ok := s.module(w, r, g)
	if !ok {
		return
	}

	if ordered, _ := strconv.ParseBool(r.URL.Query().Get("ordered")); ordered {
		conns := g.OrderedOutgoingConnections(m.ID)
		out := make([]ConnectionResponse, 0, len(conns))
		for _, c := range conns {
			out = append(out, connectionResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out := make(map[string]ConnectionResponse)
	for d, c := range g.OutgoingConnections(m.ID) {
		out[strconv.FormatUint(uint64(d), 10)] = connectionResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) incoming(w http.ResponseWriter, r *http.Request) {
	g := s.Result().Graph
	m, ok := s.module(w, r, g)
	if !ok {
		return
	}
	conns := g.IncomingConnections(m.ID)
	out := make([]ConnectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, connectionResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDependency(w http.ResponseWriter, r *http.Request) {
	g := s.Result().Graph
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, ok := g.Dependency(graph.DependencyID(id))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "dependency %d not found", id))
		return
	}

	out := dependencyResponse(d)
	if c, ok := g.ConnectionByDependency(d.ID); ok {
		cr := connectionResponse(c)
		out.Connection = &cr
	}
	if m, ok := g.ResolvedModule(d.ID); ok {
		mr := moduleResponse(m)
		out.Module = &mr
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) module(w http.ResponseWriter, r *http.Request, g *graph.ModuleGraph) (graph.Module, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return graph.Module{}, false
	}
	m, ok := g.Module(graph.ModuleID(id))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "module %d not found", id))
		return graph.Module{}, false
	}
	return m, true
}

// =============================================================================
// Helpers
// =============================================================================

func parseID(s string) (uint32, *errors.Error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid id %q", s)
	}
	return uint32(id), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.Error) {
	writeJSON(w, status, ErrorResponse{Code: err.Code, Message: err.Message})
}

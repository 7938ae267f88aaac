package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// IdentifyFunc resolves the remote address of a request to a user login.
type IdentifyFunc func(ctx context.Context, remoteAddr string) (string, error)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      *tracker.Service
	ledger   *storage.Ledger
	log      *slog.Logger
	identify IdentifyFunc
	router   chi.Router
}

// New creates a new Server with all routes configured. ledger may be nil, in
// which case the import history endpoint reports an empty list.
func New(svc *tracker.Service, ledger *storage.Ledger, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		ledger: ledger,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetIdentity enables per-request user identification, e.g. through the
// tailnet. Requests whose address cannot be identified are rejected.
func (s *Server) SetIdentity(fn IdentifyFunc) {
	s.identify = fn
}

// Mount attaches h under pattern behind the identity check. cmd/fittrack
// uses it for the streamable MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.With(s.identity).Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/programs", s.handleListPrograms)
		r.Post("/programs", s.handleCreateProgram)
		r.Post("/programs/import", s.handleImportProgram)
		r.Get("/programs/{name}", s.handleGetProgram)

		r.Get("/today", s.handleToday)
		r.Get("/week", s.handleWeek)
		r.Get("/prescription", s.handlePrescription)
		r.Get("/warmups", s.handleWarmUps)
		r.Post("/sets", s.handleRecordSet)

		r.Get("/log", s.handleLog)
		r.Post("/log/workout", s.handleLogWorkout)
		r.Post("/log/recovery", s.handleLogRecovery)

		r.Get("/onerm", s.handleOneRepMaxes)
		r.Put("/onerm", s.handleSetOneRepMax)
		r.Get("/history/{exercise}", s.handleHistory)
		r.Get("/achievements", s.handleAchievements)
		r.Get("/stats", s.handleStats)
		r.Get("/imports", s.handleImports)
		r.Get("/me", s.handleMe)
	})
}

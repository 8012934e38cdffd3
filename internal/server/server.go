package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/mapview"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	app      *app.App
	view     *mapview.View
	log      *slog.Logger
	identify IdentityFunc
	origins  []string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(a *app.App, view *mapview.View, log *slog.Logger) *Server {
	s := &Server{
		app:    a,
		view:   view,
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

func (s *Server) routes() {
	s.router.Use(Identity(func() IdentityFunc { return s.identify }))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS(func(origin string) bool { return slices.Contains(s.origins, origin) }))
	s.router.Use(http.NewCrossOriginProtection().Handler)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/map/click", s.handleMapClick)
		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleCreateWorkout)
		r.Delete("/workouts", s.handleReset)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Post("/workouts/{id}/focus", s.handleFocusWorkout)
		r.Get("/summary", s.handleSummary)
	})

	s.router.Get("/fragments/workouts", s.handleWorkoutsFragment)
	s.router.Handle("/metrics", promhttp.Handler())
}

// SetIdentity resolves the caller of each request, e.g. a tailnet login.
func (s *Server) SetIdentity(fn IdentityFunc) {
	s.identify = fn
}

// SetAllowedOrigins lists the origins that may read the API cross-origin.
func (s *Server) SetAllowedOrigins(origins []string) {
	s.origins = origins
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}

// SetFrontend mounts the embedded SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

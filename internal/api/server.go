package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dgallion1/tabsite/internal/config"
	"github.com/dgallion1/tabsite/internal/docstore"
	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/render"
	"github.com/dgallion1/tabsite/internal/site"
)

// Store is the document state the handlers read and refresh.
type Store interface {
	Snapshot() docstore.State
	Get(ctx context.Context) (*doctree.Document, error)
	Refetch(ctx context.Context) (*doctree.Document, error)
}

// Server is the HTTP server for the site and its JSON API.
type Server struct {
	router chi.Router
	store  Store
	pages  *site.Site
	render *render.Renderer
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store Store, pages *site.Site, rend *render.Renderer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:  store,
		pages:  pages,
		render: rend,
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", site.Static()))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/document", s.handleDocument)
		r.With(s.refreshLimit()).Post("/document/refresh", s.handleRefresh)
		r.Get("/tabs/{tabSlug}", s.handleTab)
		r.Get("/tabs/{tabSlug}/markdown", s.handleTabMarkdown)
	})

	r.Get("/", s.handlePage)
	r.Get("/{tabSlug}", s.handlePage)

	s.router = r
}

// refreshLimit caps forced refreshes per client IP per minute.
func (s *Server) refreshLimit() func(http.Handler) http.Handler {
	if s.cfg.RefreshRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(s.cfg.RefreshRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			jsonError(w, "too many refresh requests", http.StatusTooManyRequests)
		}),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

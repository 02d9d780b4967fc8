package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/auth"
	"github.com/Clark-Hu/ratingz/internal/config"
	"github.com/Clark-Hu/ratingz/internal/metrics"
	"github.com/Clark-Hu/ratingz/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators the handlers call into. Users and Metrics are optional.
type Deps struct {
	Health   HealthChecker
	Feedback *service.Feedback
	Catalog  *service.Catalog
	Profiles *service.Profiles
	Admin    *auth.AdminGate
	Users    *auth.UserVerifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	feedback *service.Feedback
	catalog  *service.Catalog
	profiles *service.Profiles
	admin    *auth.AdminGate
	users    *auth.UserVerifier
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   *zap.Logger
	router   chi.Router
	httpSrv  *http.Server

	writeLimit func(http.Handler) http.Handler
	loginLimit func(http.Handler) http.Handler
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	writeLimit, err := newRateLimit(cfg.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	loginLimit, err := newRateLimit(cfg.LoginRateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	s := &Server{
		cfg:        cfg,
		health:     deps.Health,
		feedback:   deps.Feedback,
		catalog:    deps.Catalog,
		profiles:   deps.Profiles,
		admin:      deps.Admin,
		users:      deps.Users,
		metrics:    deps.Metrics,
		validate:   newValidator(),
		logger:     logger.Named("http"),
		router:     r,
		writeLimit: writeLimit,
		loginLimit: loginLimit,
	}
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	s.router.Post("/identity/device", s.handleIssueDevice)

	s.router.Group(func(r chi.Router) {
		r.Use(s.userSession)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.handleListMovies)
			r.Get("/highlights", s.handleHighlights)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMovie)
				r.Get("/mine", s.handleMine)
				r.With(s.writeLimit).Post("/ratings", s.handleSubmitRating)
				r.With(s.writeLimit).Post("/reactions", s.handleSubmitReaction)
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleSyncProfile)
			r.Get("/ratings", s.handleMyRatings)
			r.Get("/reactions", s.handleMyReactions)
		})
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.With(s.loginLimit).Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/analytics", s.handleAnalytics)
			r.Post("/movies", s.handleCreateMovie)
			r.Put("/movies/{id}", s.handleUpdateMovie)
			r.Delete("/movies/{id}", s.handleDeleteMovie)
		})
	})
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/config"
	"github.com/KaramelBytes/dataprep-cli/internal/ingest"
	"github.com/KaramelBytes/dataprep-cli/internal/logger"
	"github.com/KaramelBytes/dataprep-cli/internal/metrics"
	"github.com/KaramelBytes/dataprep-cli/internal/profile"
	"github.com/KaramelBytes/dataprep-cli/internal/snapshot"
)

// storeTimeout bounds snapshot store calls made while serving a request.
const storeTimeout = 10 * time.Second

// Server serves the upload, profile and clean API.
type Server struct {
	cfg        config.Server
	ingestOpt  ingest.Options
	profileOpt profile.Options
	store      snapshot.Store
	metrics    *metrics.Metrics
	logger     *logger.Logger
	router     chi.Router
	server     *http.Server
}

// New creates a server. It does not start listening.
func New(cfg *config.Global, store snapshot.Store, m *metrics.Metrics, log *logger.Logger) (*Server, error) {
	opt, err := cfg.IngestOptions(cfg.Server.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("ingest options: %w", err)
	}
	s := &Server{
		cfg:        cfg.Server,
		ingestOpt:  opt,
		profileOpt: cfg.ProfileOptions(),
		store:      store,
		metrics:    m,
		logger:     log.WithComponent("server"),
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Rows-Before", "X-Rows-After",
			"X-Columns-Before", "X-Columns-After", "X-Clean-Steps"},
		MaxAge: 300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(newRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateBurst, s.logger).handler)
		}
		r.Post("/profile", s.handleProfile)
		r.Post("/clean", s.handleClean)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting dataprep server",
		zap.Int("port", s.cfg.Port),
		zap.Int64("max_upload_bytes", s.cfg.MaxUploadBytes),
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping dataprep server")
	return s.server.Shutdown(ctx)
}

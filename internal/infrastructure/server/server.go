// Package server wires the previewd components into an HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/sitewright/previewd/internal/api/http"
	"github.com/sitewright/previewd/internal/api/middleware"
	"github.com/sitewright/previewd/internal/api/ws"
	"github.com/sitewright/previewd/internal/bundle"
	"github.com/sitewright/previewd/internal/infrastructure/config"
	"github.com/sitewright/previewd/internal/infrastructure/logging"
	"github.com/sitewright/previewd/internal/infrastructure/monitoring"
	"github.com/sitewright/previewd/internal/intent"
	"github.com/sitewright/previewd/internal/session"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	registry *bundle.Registry
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New creates a server instance from configuration
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing previewd",
		zap.String("port", cfg.Server.Port),
		zap.String("allowed_origin", cfg.Preview.AllowedOrigin),
	)

	metrics := monitoring.NewMetrics()

	registry, err := bundle.NewRegistry(cfg.Preview.BundleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle registry: %w", err)
	}

	var fetcher *bundle.Fetcher
	if cfg.Preview.ArtifactDir != "" {
		fetcher, err = bundle.NewFetcher(cfg.Preview.ArtifactDir, 30*time.Second, logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open artifact store: %w", err)
		}
	}

	if cfg.Preview.SeedDir != "" {
		seeder := bundle.NewSeeder(registry, cfg.Preview.SeedDir, fetcher, logger.Logger)
		if err := seeder.Seed(); err != nil {
			logger.Warn("bundle seeding failed", zap.Error(err))
		}
	}

	var edgeInvoker *intent.EdgeInvoker
	if cfg.Edge.BaseURL != "" {
		edgeInvoker, err = intent.NewEdgeInvoker(intent.EdgeConfig{
			BaseURL:  cfg.Edge.BaseURL,
			Timeout:  cfg.Edge.Timeout,
			RetryMax: cfg.Edge.RetryMax,
		}, logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure edge invoker: %w", err)
		}
		logger.Info("Edge invoker enabled", zap.String("base_url", cfg.Edge.BaseURL))
	}

	sessions := session.NewManager(logger.Logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Preview.AllowedOrigin)))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(registry, sessions)
	artifacts := apihttp.NewArtifactHandler(cfg.Preview.ArtifactDir)
	wsHandler := ws.NewHandler(registry, sessions, ws.Config{
		AllowedOrigin: cfg.Preview.AllowedOrigin,
		IntentTimeout: cfg.Preview.IntentTimeout,
		EdgeInvoker:   edgeInvoker,
		ArtifactBase:  "/artifacts",
		ValidateJS:    cfg.Preview.ValidateJS,
	}, logger.Logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Bundle registry
	router.POST("/bundles", handlers.RegisterBundle)
	router.GET("/bundles", handlers.ListBundles)
	router.GET("/bundles/:id", handlers.GetBundle)
	router.DELETE("/bundles/:id", handlers.DeleteBundle)
	router.GET("/bundles/:id/engine", handlers.GetEngine)

	// Preview sessions
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.DELETE("/sessions/:id", handlers.CloseSession)
	router.POST("/sessions/:id/navigate", handlers.NavigateSession)

	// Artifacts
	router.GET("/artifacts/:bundle/*path", artifacts.Serve)

	// Preview websocket
	router.GET("/preview/:id", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized")

	return &Server{
		router:   router,
		registry: registry,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts the server down: active preview sessions are
// torn down first so in-flight intents are canceled rather than
// orphaned on a dead socket.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.sessions.CloseAll()

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
	}

	s.logger.Sync()
	return nil
}

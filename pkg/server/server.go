package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/handlers"
	"picksheet/pkg/logger"
	"picksheet/pkg/metrics"
	"picksheet/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server constants
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 2 * time.Minute
	DefaultIdleTimeout  = 120 * time.Second
	MetricsNamespace    = "picksheet"
)

// HTTPServer represents the HTTP server component
type HTTPServer struct {
	server     *http.Server
	router     *gin.Engine
	config     *config.Config
	handlerSvc *handlers.HandlerService
	gatherer   prometheus.Gatherer
	registerer prometheus.Registerer
}

// Option customizes an HTTPServer.
type Option func(*HTTPServer)

// WithRegistry serves and records metrics on reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *HTTPServer) {
		s.gatherer = reg
		s.registerer = reg
	}
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(cfg *config.Config, handlerSvc *handlers.HandlerService, opts ...Option) *HTTPServer {
	logger.Info("Initializing HTTP server",
		zap.String("address", cfg.Server.Address),
		zap.Int("port", cfg.Server.Port))

	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		router:     gin.New(),
		config:     cfg,
		handlerSvc: handlerSvc,
		gatherer:   prometheus.DefaultGatherer,
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	logger.Info("HTTP server initialized", zap.String("listen_addr", addr))
	return s
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *HTTPServer) setupRoutes() {
	s.addMiddleware()

	s.router.GET("/health", s.handlerSvc.HealthCheck)

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.setupAPIRoutes()

	logger.Info("HTTP routes configured")
}

// addMiddleware adds all middleware to the router
func (s *HTTPServer) addMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.AccessLog(logger.With(zap.String("component", "http"))))
	if s.config.Metrics.Enabled {
		s.router.Use(middleware.HTTPMetrics(metrics.NewHTTPMetrics(MetricsNamespace, s.registerer)))
	}
	s.router.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	s.router.Use(middleware.ErrorHandler())
}

// setupAPIRoutes configures API v1 routes
func (s *HTTPServer) setupAPIRoutes() {
	api := s.router.Group("/api/v1")

	s.setupSystemRoutes(api)
	s.setupLabelRoutes(api)
	s.setupRunRoutes(api)
	s.setupSchedulerRoutes(api)
}

// setupSystemRoutes configures system endpoints
func (s *HTTPServer) setupSystemRoutes(api *gin.RouterGroup) {
	api.GET("/status", s.handlerSvc.GetStatus)
	api.GET("/config", s.handlerSvc.GetAppConfig)
}

// setupLabelRoutes configures document processing endpoints
func (s *HTTPServer) setupLabelRoutes(api *gin.RouterGroup) {
	labels := api.Group("/labels")
	labels.Use(middleware.RateLimit(s.config.Server.RateLimit, s.config.Server.RateBurst))
	labels.POST("/parse", s.handlerSvc.ParseLabels)
	labels.POST("/report", s.handlerSvc.RenderReport)
	labels.POST("/preview", s.handlerSvc.RenderPreview)
}

// setupRunRoutes configures run history endpoints
func (s *HTTPServer) setupRunRoutes(api *gin.RouterGroup) {
	api.GET("/runs", s.handlerSvc.ListRuns)
	api.GET("/runs/:id", s.handlerSvc.GetRun)
}

// setupSchedulerRoutes configures scheduler endpoints
func (s *HTTPServer) setupSchedulerRoutes(api *gin.RouterGroup) {
	api.GET("/scheduler/status", s.handlerSvc.GetSchedulerStatus)
	api.GET("/scheduler/jobs", s.handlerSvc.GetScheduledJobs)
	api.POST("/scheduler/jobs", s.handlerSvc.CreateScheduledJob)
	api.DELETE("/scheduler/jobs/:id", s.handlerSvc.DeleteScheduledJob)
	api.POST("/scheduler/jobs/:id/run", s.handlerSvc.TriggerScheduledJob)
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/platformbuilds/prognos-core/internal/api/handlers"
	"github.com/platformbuilds/prognos-core/internal/api/middleware"
	"github.com/platformbuilds/prognos-core/internal/config"
	"github.com/platformbuilds/prognos-core/internal/grpc/clients"
	"github.com/platformbuilds/prognos-core/internal/monitoring"
	"github.com/platformbuilds/prognos-core/pkg/cache"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

type Server struct {
	config       *config.Config
	logger       logger.Logger
	cache        cache.ValkeyCluster
	stageClients *clients.StageClients
	pipeline     handlers.ForecastPipeline
	router       *gin.Engine
	httpServer   *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.ValkeyCluster,
	stageClients *clients.StageClients,
	pipeline handlers.ForecastPipeline,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:       cfg,
		logger:       log,
		cache:        valkeyCache,
		stageClients: stageClients,
		pipeline:     pipeline,
		router:       router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// CORS for PROGNOS-UI communication
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	// Request logging
	s.router.Use(middleware.RequestLogger(s.logger))

	// Prometheus request metrics
	s.router.Use(monitoring.HTTPMetricsMiddleware())

	// Rate limiting using Valkey cluster
	s.router.Use(middleware.RateLimiter(s.cache))

	// OpenAPI specification endpoints
	s.router.StaticFile("/api/openapi.yaml", "api/openapi.yaml")
	s.router.GET("/api/openapi.json", handlers.GetOpenAPISpec)

	// Swagger UI via gin-swagger (serves Swagger UI using external openapi.yaml)
	// Visit /swagger/index.html
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.yaml")))

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.stageClients, s.cache, s.logger)

	// Public health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/microservices/status", healthHandler.MicroservicesStatus)

	// Root redirect to Swagger UI for convenience
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Back-compat: expose health under /api/v1 as well
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)

	// Forecast pipeline endpoints
	forecastHandler := handlers.NewForecastHandler(s.pipeline, s.logger)
	v1.POST("/forecast", forecastHandler.RunForecast)
	v1.GET("/forecast/defaults", forecastHandler.GetPipelineDefaults)
}

func (s *Server) Start(ctx context.Context) error {
	// The write timeout must outlast the pipeline's aggregate request
	// budget or long runs would be cut off mid-response.
	writeTimeout := s.config.Pipeline.RequestTimeoutDuration() + 10*time.Second

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("PROGNOS-CORE REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down PROGNOS-CORE gracefully")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close gRPC connections
	if err := s.stageClients.Close(); err != nil {
		s.logger.Error("Failed to close stage engine clients", "error", err)
	}

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}

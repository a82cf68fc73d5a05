package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/prognos-core/internal/api"
	"github.com/platformbuilds/prognos-core/internal/config"
	"github.com/platformbuilds/prognos-core/internal/grpc/clients"
	"github.com/platformbuilds/prognos-core/internal/pipeline"
	"github.com/platformbuilds/prognos-core/internal/tracing"
	"github.com/platformbuilds/prognos-core/internal/version"
	"github.com/platformbuilds/prognos-core/pkg/cache"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

func main() {
	printConfig := flag.String("print-config", "", "print a starter config for the given environment and exit")
	flag.Parse()

	if *printConfig != "" {
		template, err := config.GenerateConfigTemplate(*printConfig)
		if err != nil {
			log.Fatalf("Failed to generate config template: %v", err)
		}
		fmt.Print(template)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting PROGNOS-CORE", "version", version.Version, "environment", cfg.Environment)

	// Distributed tracing (optional)
	if cfg.Tracing.Enabled {
		tp, err := tracing.NewTracerProvider("prognos-core", version.Version, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer provider", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracer shutdown failed", "error", err)
			}
		}()
		logger.Info("OTLP tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	// Initialize Valkey caching for stage results and rate limiting
	valkeyCache := newCache(cfg, logger)

	// Initialize gRPC clients for the four stage engines
	stageClients, err := clients.NewStageClients(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize stage engine clients", "error", err)
	}
	logger.Info("Stage engine clients initialized",
		"preprocess", stageClients.PreprocessEnabled,
		"segment", stageClients.SegmentEnabled,
		"outlier", stageClients.OutlierEnabled,
		"forecast", stageClients.ForecastEnabled)

	// Pipeline orchestrator
	orchestrator := pipeline.NewOrchestrator(stageClients, valkeyCache, cfg.Pipeline, logger)

	// Initialize API server
	apiServer := api.NewServer(cfg, logger, valkeyCache, stageClients, orchestrator)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload pipeline tunables when the config file changes. Env-only
	// deployments have no file to watch.
	if cfg.ConfigFile != "" {
		watcher := config.NewConfigWatcher(cfg.ConfigFile, logger)
		watcher.RegisterWatcher(func(updated *config.Config) {
			orchestrator.UpdateConfig(updated.Pipeline)
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Error("Configuration watcher failed", "error", err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Start server
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("PROGNOS-CORE shutdown complete")
}

// newCache picks the Valkey topology from configuration: no nodes means
// the no-op cache (development), one node a single client, several a
// cluster client. Cache trouble never blocks startup; the pipeline is
// required to work without a cache.
func newCache(cfg *config.Config, log logger.Logger) cache.ValkeyCluster {
	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	switch len(cfg.Cache.Nodes) {
	case 0:
		log.Warn("No cache nodes configured; stage-result caching and rate limiting run on the no-op cache")
		return cache.NewNoopValkeyCache(log)
	case 1:
		c, err := cache.NewValkeySingle(cfg.Cache.Nodes[0], cfg.Cache.DB, cfg.Cache.Password, ttl)
		if err != nil {
			log.Warn("Valkey unreachable; continuing with no-op cache", "node", cfg.Cache.Nodes[0], "error", err)
			return cache.NewNoopValkeyCache(log)
		}
		log.Info("Valkey cache initialized", "node", cfg.Cache.Nodes[0])
		return c
	default:
		c, err := cache.NewValkeyCluster(cfg.Cache.Nodes, cfg.Cache.Password, ttl)
		if err != nil {
			log.Warn("Valkey cluster unreachable; continuing with no-op cache", "nodes", len(cfg.Cache.Nodes), "error", err)
			return cache.NewNoopValkeyCache(log)
		}
		log.Info("Valkey cluster cache initialized", "nodes", len(cfg.Cache.Nodes))
		return c
	}
}

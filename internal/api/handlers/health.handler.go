package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/prognos-core/internal/grpc/clients"
	"github.com/platformbuilds/prognos-core/internal/version"
	"github.com/platformbuilds/prognos-core/pkg/cache"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

type HealthHandler struct {
	stageClients *clients.StageClients
	cache        cache.ValkeyCluster
	logger       logger.Logger
}

func NewHealthHandler(stageClients *clients.StageClients, c cache.ValkeyCluster, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		stageClients: stageClients,
		cache:        c,
		logger:       logger,
	}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "prognos-core",
		"version":   version.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - Readiness check. The gateway is ready when its cache is
// reachable; engine availability is reported separately because a run
// can still degrade gracefully with engines down.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	valkeyErr := h.cache.HealthCheck(ctx)
	if valkeyErr != nil {
		// Fallback probe: some deployments restrict PING
		probeKey := fmt.Sprintf("ready:%d", time.Now().UnixNano())
		valkeyErr = h.cache.Set(ctx, probeKey, "1", 1*time.Second)
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if valkeyErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	resp := gin.H{
		"status":    status,
		"service":   "prognos-core",
		"version":   version.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if valkeyErr != nil {
		resp["error"] = valkeyErr.Error()
	}
	c.JSON(httpStatus, resp)
}

// GET /microservices/status - report health of the four stage engines
func (h *HealthHandler) MicroservicesStatus(c *gin.Context) {
	checks := make(map[string]interface{})
	overallHealthy := true

	for engine, state := range h.stageClients.EngineStatus() {
		checks[engine] = map[string]interface{}{"status": state}
		// A disabled engine is a development convenience, not an outage.
		if state == "unreachable" {
			overallHealthy = false
		}
	}

	httpStatus := http.StatusOK
	status := "healthy"
	if !overallHealthy {
		httpStatus = http.StatusServiceUnavailable
		status = "degraded"
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"service":   "prognos-core",
		"version":   version.Version,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// ForecastPipeline runs one forecast request through all four stages.
// Tests substitute an in-process fake for the real orchestrator.
type ForecastPipeline interface {
	Run(ctx context.Context, req *models.ForecastRequest) *models.PipelineResponse
}

type ForecastHandler struct {
	pipeline ForecastPipeline
	logger   logger.Logger
}

func NewForecastHandler(pipeline ForecastPipeline, logger logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// POST /api/v1/forecast - Run the full forecasting pipeline
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	var request models.ForecastRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	response := h.pipeline.Run(c.Request.Context(), &request)
	c.Header("X-Run-ID", response.RunID)

	// Expected pipeline failures still produce a well-formed response;
	// only rejected input maps to a client error code.
	httpStatus := http.StatusOK
	envelope := "success"
	if response.Status == models.StatusFailed {
		envelope = "error"
		if response.FailureKind == models.FailureInvalidInput {
			httpStatus = http.StatusBadRequest
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    envelope,
		"data":      response,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /api/v1/forecast/defaults - Documented per-stage defaults
func (h *ForecastHandler) GetPipelineDefaults(c *gin.Context) {
	defaults := models.PipelineConfig{}
	defaults.ApplyDefaults()
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"data":      defaults,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

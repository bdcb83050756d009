package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/platepicker/backend/internal/domain"
	"github.com/platepicker/backend/internal/usecase"
	"github.com/platepicker/backend/pkg/logger"
)

// BulkAddRunner runs one bulk-add batch
type BulkAddRunner interface {
	Run(ctx context.Context, rawText string, reference []domain.ReferenceItem, opts ...usecase.RunOption) (*domain.BatchReport, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline BulkAddRunner
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(pipeline BulkAddRunner, log *zap.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		logger:   logger.OrNop(log),
	}
}

// BulkAddRequest is the body of a bulk-add run
type BulkAddRequest struct {
	Text      string                 `json:"text"`
	Reference []domain.ReferenceItem `json:"reference"`
	// DuplicatePolicy is "annotate" or "skip"; empty uses the server default
	DuplicatePolicy string `json:"duplicatePolicy"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "platepicker-backend",
		"version": "1.0.0",
	})
}

// BulkAdd runs the pasted text through the ingestion pipeline and returns the batch report
func (h *Handler) BulkAdd(c *gin.Context) {
	if h.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bulk-add pipeline not configured"})
		return
	}

	var req BulkAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	var opts []usecase.RunOption
	if req.DuplicatePolicy != "" {
		policy, err := usecase.ParseDuplicatePolicy(req.DuplicatePolicy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts = append(opts, usecase.WithDuplicatePolicy(policy))
	}

	report, err := h.pipeline.Run(c.Request.Context(), req.Text, req.Reference, opts...)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSubmissionContract):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("bulk-add run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

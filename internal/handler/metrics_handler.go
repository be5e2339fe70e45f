package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/jobs"
	"github.com/noah-isme/edutask-api/pkg/response"
)

type snapshotSource interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
}

type queueStats interface {
	Stats() jobs.Stats
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   snapshotSource
	queue   queueStats
}

// NewMetricsHandler constructs a metrics handler. queue may be nil when
// reports are disabled.
func NewMetricsHandler(metrics *service.MetricsService, docs snapshotSource, queue queueStats) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: docs, queue: queue}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Operations
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Ready once the document snapshot can be read.
// @Tags Operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "store not configured"})
		return
	}
	snap, err := h.store.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	body := gin.H{"status": "ready", "version": snap.Version}
	if h.queue != nil {
		body["reports"] = h.queue.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// Summary godoc
// @Summary Process metrics summary
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

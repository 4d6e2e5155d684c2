package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classtable-engine/internal/service"
)

// MetricsHandler exposes observability endpoints (health and Prometheus
// scrape) wrapping a SolveMetrics registry.
type MetricsHandler struct {
	metrics *service.SolveMetrics
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.SolveMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
)

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	checks  map[string]ReadinessCheck
	metrics *prometheus.AppMetrics
}

func NewHealthHandler(checks map[string]ReadinessCheck, metrics *prometheus.AppMetrics) *HealthHandler {
	return &HealthHandler{checks: checks, metrics: metrics}
}

// Liveness reports the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness runs every dependency check and reports per-component status.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		status := "ok"
		up := 1.0
		if err := check(ctx); err != nil {
			status = err.Error()
			healthy = false
			up = 0
		}
		components[name] = status
		if h.metrics != nil {
			h.metrics.HealthCheckStatus.WithLabelValues(name).Set(up)
		}
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(code, gin.H{"status": overall, "components": components})
}

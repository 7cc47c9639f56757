package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
)

// RequestLogging logs each request with latency and status after it finishes.
func RequestLogging(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
			log.Error("request failed", fields...)
			return
		}
		if c.Writer.Status() >= 500 {
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Metrics records per-request counters and durations.
func Metrics(metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPActiveRequests.WithLabelValues(method, path).Inc()
		c.Next()
		metrics.HTTPActiveRequests.WithLabelValues(method, path).Dec()

		prometheus.RecordHTTPRequest(metrics, method, path, c.Writer.Status(), time.Since(start))
	}
}

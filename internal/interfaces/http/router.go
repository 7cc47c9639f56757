// Package http wires the gin route tree and the HTTP server around the
// application services.
package http

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
	"github.com/openadmet/admet-server/internal/interfaces/http/handlers"
	"github.com/openadmet/admet-server/internal/interfaces/http/middleware"
	"github.com/openadmet/admet-server/web"
)

// RouterConfig aggregates the handlers and middleware dependencies for the
// complete route tree.
type RouterConfig struct {
	IndexHandler     *handlers.IndexHandler
	PlotHandler      *handlers.PlotHandler
	DownloadHandler  *handlers.DownloadHandler
	HeartbeatHandler *handlers.HeartbeatHandler
	HealthHandler    *handlers.HealthHandler

	Server  config.ServerConfig
	Metrics *prometheus.AppMetrics

	// MetricsCollector exposes the Prometheus endpoint; nil disables it.
	MetricsCollector prometheus.MetricsCollector

	Logger logging.Logger
}

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(ginMode(cfg.Server.Mode))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Session(cfg.Server.SecureCookies))

	tmpl := template.Must(template.ParseFS(web.Templates, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", cfg.IndexHandler.Get)
	r.POST("/", cfg.IndexHandler.Post)
	r.GET("/drugbank_plot", cfg.PlotHandler.DrugBankPlot)
	r.GET("/download_predictions", cfg.DownloadHandler.Predictions)
	r.POST("/heartbeat", cfg.HeartbeatHandler.Beat)

	r.GET("/healthz", cfg.HealthHandler.Liveness)
	r.GET("/readyz", cfg.HealthHandler.Readiness)

	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	return r
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

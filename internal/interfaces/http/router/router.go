package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/logger"
	"github.com/erp/pos-bridge/internal/interfaces/http/handler"
	"github.com/erp/pos-bridge/internal/interfaces/http/middleware"
)

// Config bundles the handlers and settings the router needs
type Config struct {
	App           *config.AppConfig
	HTTP          *config.HTTPConfig
	Telemetry     *config.TelemetryConfig
	WebhookSecret string

	Webhooks *handler.WebhookHandler
	Sync     *handler.SyncHandler
	Health   *handler.HealthHandler
	Logger   *zap.Logger
}

// New builds the gin engine with all routes and middleware attached
func New(cfg Config) *gin.Engine {
	if cfg.App != nil && cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	engine.GET("/health", cfg.Health.Health)

	webhooks := engine.Group("/webhooks/epos")
	webhooks.Use(middleware.WebhookAuth(cfg.WebhookSecret))
	{
		webhooks.POST("/product", cfg.Webhooks.HandleProductChange)
		webhooks.POST("/stock", cfg.Webhooks.HandleStockChange)
	}

	if cfg.Sync != nil {
		sync := engine.Group("/api/v1/sync")
		{
			sync.POST("/customers/:id", cfg.Sync.PushCustomer)
			sync.PUT("/customers/:id", cfg.Sync.UpdateCustomer)
			sync.DELETE("/customers/:id", cfg.Sync.RemoveCustomer)
			sync.POST("/orders/:id", cfg.Sync.PushOrder)
			sync.POST("/orders/:id/confirm", cfg.Sync.ConfirmOrder)
			sync.POST("/orders/:id/cancel", cfg.Sync.CancelOrder)
			sync.POST("/full", cfg.Sync.TriggerFullSync)
		}
	}

	return engine
}

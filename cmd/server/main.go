package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/application/possync"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/infrastructure/cache"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/eposnow"
	"github.com/erp/pos-bridge/internal/infrastructure/logger"
	"github.com/erp/pos-bridge/internal/infrastructure/persistence"
	"github.com/erp/pos-bridge/internal/infrastructure/scheduler"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
	"github.com/erp/pos-bridge/internal/infrastructure/telemetry"
	"github.com/erp/pos-bridge/internal/interfaces/http/handler"
	"github.com/erp/pos-bridge/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POS bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Append-only POS sync audit log, opened once and shared by everything
	// that talks to the POS
	audit, err := synclog.Open(cfg.Log.SyncLogPath)
	if err != nil {
		log.Fatal("Failed to open sync audit log", zap.Error(err))
	}
	defer func() {
		if err := audit.Close(); err != nil {
			log.Error("Error closing sync audit log", zap.Error(err))
		}
	}()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if tracerProvider.IsEnabled() {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Webhook idempotency store
	var idempotency shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotency = redisStore
		log.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotency = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// POS gateway and sync services
	gateway := eposnow.NewClient(&cfg.POS, audit, log)
	reconciler := possync.NewStockReconciler(productRepo, audit)
	inboundService := possync.NewInboundService(productRepo, reconciler, &cfg.POS, audit, log)
	fullSyncService := possync.NewFullSyncService(gateway, productRepo, reconciler, &cfg.POS, log)
	outboundService := possync.NewOutboundService(gateway, customerRepo, orderRepo, &cfg.POS, audit, log)

	// Periodic full synchronization
	var fullSyncTrigger handler.FullSyncTrigger
	if cfg.Scheduler.Enabled {
		fullSyncScheduler, err := scheduler.NewFullSyncScheduler(scheduler.FullSyncSchedulerConfig{
			Interval:   cfg.Scheduler.FullSyncInterval,
			RunTimeout: cfg.Scheduler.RunTimeout,
		}, fullSyncService, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := fullSyncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start full sync scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := fullSyncScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping full sync scheduler", zap.Error(err))
			}
		}()
		fullSyncTrigger = fullSyncScheduler
	}

	// HTTP server
	engine := router.New(router.Config{
		App:           &cfg.App,
		HTTP:          &cfg.HTTP,
		Telemetry:     &cfg.Telemetry,
		WebhookSecret: cfg.HTTP.WebhookSecret,
		Webhooks:      handler.NewWebhookHandler(inboundService, idempotency, log),
		Sync:          handler.NewSyncHandler(outboundService, fullSyncTrigger, log),
		Health:        handler.NewHealthHandler(db),
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

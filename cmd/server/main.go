package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconnect "github.com/finsight/backend/internal/application/connect"
	appreport "github.com/finsight/backend/internal/application/report"
	appsync "github.com/finsight/backend/internal/application/sync"
	"github.com/finsight/backend/internal/infrastructure/auth"
	"github.com/finsight/backend/internal/infrastructure/cache"
	"github.com/finsight/backend/internal/infrastructure/config"
	"github.com/finsight/backend/internal/infrastructure/logger"
	"github.com/finsight/backend/internal/infrastructure/persistence"
	"github.com/finsight/backend/internal/infrastructure/scheduler"
	"github.com/finsight/backend/internal/infrastructure/telemetry"
	"github.com/finsight/backend/internal/infrastructure/xero"
	"github.com/finsight/backend/internal/interfaces/http/handler"
	"github.com/finsight/backend/internal/interfaces/http/middleware"
	"github.com/finsight/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Finsight Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("runtime_mode", cfg.App.RuntimeMode),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	// Repositories
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	checkpointRepo := persistence.NewGormCheckpointRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	stateStore := cache.NewRedisStateStore(redisClient)

	// Xero provider clients
	xeroCfg := xero.Config{
		ClientID:           cfg.Xero.ClientID,
		ClientSecret:       cfg.Xero.ClientSecret,
		RedirectURI:        cfg.Xero.RedirectURI,
		Scopes:             cfg.Xero.Scopes,
		AuthURL:            cfg.Xero.AuthURL,
		TokenURL:           cfg.Xero.TokenURL,
		RevokeURL:          cfg.Xero.RevokeURL,
		ConnectionsURL:     cfg.Xero.ConnectionsURL,
		APIBaseURL:         cfg.Xero.APIBaseURL,
		PageSize:           cfg.Xero.PageSize,
		RequestTimeout:     cfg.Xero.RequestTimeout,
		MaxAttempts:        cfg.Xero.MaxAttempts,
		RateLimitPerMinute: cfg.Xero.RateLimitPerMinute,
	}
	authClient, err := xero.NewAuthClient(xeroCfg, log)
	if err != nil {
		log.Fatal("Failed to create Xero auth client", zap.Error(err))
	}
	tenantLimiter := xero.NewTenantLimiter(cfg.Xero.RateLimitPerMinute, time.Minute)
	xeroClient, err := xero.NewClient(xeroCfg, tenantLimiter, log)
	if err != nil {
		log.Fatal("Failed to create Xero API client", zap.Error(err))
	}

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("finsight/sync"))
	if err != nil {
		log.Fatal("Failed to register sync metrics", zap.Error(err))
	}

	// Application services
	tokenManager := appconnect.NewTokenManager(
		authClient, connectionRepo, stateStore, cfg.Xero.Scopes, cfg.Sync.StateTTL, log)
	fetcher := appsync.NewEntityFetcher(
		xeroClient, ledgerRepo, checkpointRepo, cfg.Xero.MaxAttempts, log)
	orchestrator := appsync.NewOrchestrator(
		tokenManager, fetcher, sessionRepo, syncMetrics, cfg.Sync.SessionTimeout, log)
	reportService := appreport.NewReportService(ledgerRepo, log)

	// Internal scheduler, in addition to the external HTTP trigger
	syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Enabled:  cfg.Sync.SchedulerEnabled,
		Interval: cfg.Sync.SchedulerInterval,
	}, orchestrator, log)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}()

	// HTTP surface
	validator := auth.NewTokenValidator(cfg.JWT)
	systemHandler := handler.NewSystemHandler(db.DB, redisClient, version)
	syncHandler := handler.NewSyncHandler(
		orchestrator, cfg.Sync.TriggerSecret, cfg.IsMaintenance, log)
	xeroHandler := handler.NewXeroHandler(
		tokenManager, cfg.Xero.SettingsRedirectURL, cfg.Sync.StateTTL,
		cfg.App.Env == "production", log)
	reportHandler := handler.NewReportHandler(reportService, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	opts := []router.RouterOption{
		router.WithAPIVersion("v1"),
		router.WithMaxBodySize(cfg.HTTP.MaxBodySize),
	}
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		opts = append(opts, router.WithRateLimiter(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	r := router.NewRouter(engine, validator, log, opts...)
	r.RegisterPublic(systemHandler)
	r.RegisterPublic(syncHandler)
	r.RegisterPublic(xeroHandler)
	r.RegisterProtected(syncHandler)
	r.RegisterProtected(reportHandler)
	r.RegisterElevated(xeroHandler)
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

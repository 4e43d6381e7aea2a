package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ledgerd/backend/internal/application/billing"
	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/infrastructure/cache"
	"github.com/ledgerd/backend/internal/infrastructure/config"
	"github.com/ledgerd/backend/internal/infrastructure/logger"
	"github.com/ledgerd/backend/internal/infrastructure/persistence"
	"github.com/ledgerd/backend/internal/interfaces/http/handler"
	"github.com/ledgerd/backend/internal/interfaces/http/middleware"
	"github.com/ledgerd/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with a zap-backed GORM logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize unit of work and repositories
	uow := persistence.NewGormUnitOfWork(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	rateLogRepo := persistence.NewGormExchangeRateLogRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	settingsRepo := persistence.NewGormCompanySettingsRepository(db.DB)

	// Company settings are read on every numbering and currency decision,
	// so they sit behind a cache. Redis when enabled, in-memory otherwise.
	var settings billing.CompanySettingsProvider = settingsRepo
	var settingsStore cache.Store
	if cfg.Redis.Enabled {
		factory := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log))
		settingsStore, err = factory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create settings cache", zap.Error(err))
		}
	} else {
		settingsStore = cache.NewInMemoryStore(cache.WithInMemoryLogger(log))
	}
	defer func() {
		if err := settingsStore.Close(); err != nil {
			log.Error("Error closing settings cache", zap.Error(err))
		}
	}()
	settings = cache.NewCachedSettingsProvider(settingsRepo, settingsStore,
		cache.WithSettingsTTL(cfg.Ledger.SettingsCacheTTL),
		cache.WithSettingsLogger(log),
	)

	// Initialize application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, paymentRepo, rateLogRepo, sequenceRepo, settings, uow, log)
	paymentService := billingapp.NewPaymentService(invoiceRepo, paymentRepo, rateLogRepo, sequenceRepo, settings, uow, log)

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	// 5. CompanyScope - Resolve the tenant every operation runs under
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.CompanyScopeWithConfig(middleware.CompanyConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
		Logger:    log,
	}))

	// Health endpoints live outside API versioning
	systemHandler.RegisterRoutes(engine)

	// Register versioned API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(invoiceHandler).
		Register(paymentHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

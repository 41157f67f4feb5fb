package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	journalapp "github.com/haulage/backend/internal/application/journal"
	ledgerapp "github.com/haulage/backend/internal/application/ledger"
	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/infrastructure/auth"
	"github.com/haulage/backend/internal/infrastructure/cache"
	"github.com/haulage/backend/internal/infrastructure/config"
	"github.com/haulage/backend/internal/infrastructure/logger"
	"github.com/haulage/backend/internal/infrastructure/persistence"
	"github.com/haulage/backend/internal/interfaces/http/handler"
	"github.com/haulage/backend/internal/interfaces/http/middleware"
	"github.com/haulage/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Repositories
	periodRepo := persistence.NewGormDebtPeriodRepository(db.DB)
	receiptRepo := persistence.NewGormPaymentReceiptRepository(db.DB)
	entryRepo := persistence.NewGormJournalEntryRepository(db.DB)
	customerDir := persistence.NewGormCustomerDirectory(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Idempotency store: Redis when configured, in-process fallback otherwise
	var idemStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		idemStore = redisStore
		log.Info("Using redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idemStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() { _ = idemStore.Close() }()

	idemConfig := shared.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Enabled: cfg.Idempotency.Enabled,
	}

	// Application services
	periodService := ledgerapp.NewPeriodService(periodRepo, customerDir, txManager, log)
	receiptService := ledgerapp.NewReceiptService(
		receiptRepo, periodRepo, customerDir,
		ledger.NewAllocationService(),
		txManager, idemStore, idemConfig, log,
	)
	journalService := journalapp.NewJournalService(entryRepo, txManager, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	periodHandler := handler.NewPeriodHandler(periodService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	journalHandler := handler.NewJournalHandler(journalService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	if cfg.JWT.Secret != "" {
		r.Use(middleware.JWTAuthMiddleware(jwtService))
	} else {
		log.Warn("JWT secret not configured, API authentication disabled")
	}
	r.Register(periodHandler).
		Register(receiptHandler).
		Register(journalHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

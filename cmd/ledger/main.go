package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/config"
	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/handler"
	"github.com/jorgyvanlima/pdvc1/internal/infra/cache"
	"github.com/jorgyvanlima/pdvc1/internal/infra/client"
	"github.com/jorgyvanlima/pdvc1/internal/infra/memory"
	"github.com/jorgyvanlima/pdvc1/internal/infra/observability"
	"github.com/jorgyvanlima/pdvc1/internal/infra/postgres"
	"github.com/jorgyvanlima/pdvc1/internal/infra/resilience"
	"github.com/jorgyvanlima/pdvc1/internal/port"
	"github.com/jorgyvanlima/pdvc1/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "ledger")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_postgres", cfg.DatabaseURL != ""),
		zap.String("timezone", cfg.Timezone),
		zap.Int("due_soon_days", cfg.DueSoonDays),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("sale_cache_ttl", cfg.SaleCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("jwt_enabled", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	var store port.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(context.Background(), postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: int32(cfg.DBMaxConns),
			Timeout:  cfg.DBTimeout,
			Location: loc,
		}, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer pg.Close()
		if cfg.MigrateOnRun {
			if err := pg.Migrate(context.Background()); err != nil {
				logger.Fatal("failed to migrate database", zap.Error(err))
			}
		}
		store = pg
		logger.Info("using PostgreSQL store")
	} else {
		store = memory.New()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// --- Sales collaborator ---
	saleCache := cache.New[*domain.SaleSummary](cfg.SaleCacheTTL)
	defer saleCache.Close()

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("sales", client.IsNotFound)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	sales := client.NewSalesClient(httpClient, cfg.SalesAPIURL, cb, resilienceCfg, saleCache, metrics)

	// --- Services ---
	opts := service.Options{
		Location:      loc,
		DueSoonDays:   cfg.DueSoonDays,
		PageSize:      cfg.DefaultPageSize,
		AlertPageSize: cfg.AlertPageSize,
	}
	svcs := handler.Services{
		Registry:  service.NewRegistryService(store, logger, opts),
		Ledger:    service.NewLedgerService(store, sales, metrics, logger, opts),
		DailyCash: service.NewDailyCashService(store, metrics, logger, opts),
		Alerts:    service.NewAlertService(store, metrics, logger, opts),
		Dashboard: service.NewDashboardService(store, metrics, logger, opts),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, store, metrics, handler.Options{JWTSecret: cfg.JWTSecret, Location: loc}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

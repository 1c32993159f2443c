package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "stock-pos/internal/adapters/web"
	"stock-pos/internal/app"
	"stock-pos/internal/cache"
	"stock-pos/internal/config"
	"stock-pos/internal/core"
	"stock-pos/internal/db"
	"stock-pos/internal/logging"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET environment variable not set")
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(sigCtx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	// The dashboard cache is optional; without Redis every summary hits the database.
	var summaryCache core.SummaryCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(sigCtx, cfg.RedisAddr)
		if err != nil {
			logger.WithField("field", "redis").Warn("dashboard cache disabled: " + err.Error())
		} else {
			defer rc.Close()
			summaryCache = rc
		}
	}

	ledger := core.NewStockLedger(pool, logger)
	productService := core.NewProductService(pool, ledger, logger)
	saleService := core.NewSaleService(pool, ledger, logger)
	reportingService := core.NewReportingService(pool, summaryCache, cfg.DashboardCacheTTL, logger)
	userService := core.NewUserService(pool)

	// Development seeding is CLI only; the server never exposes it.
	svc := app.NewAppService(productService, saleService, reportingService, userService, nil)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.ServerPort).Info("server starting")
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("field", "http").Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("field", "http").Error("graceful shutdown failed: " + err.Error())
	}
	logger.Info("server stopped")
}

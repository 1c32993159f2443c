package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-pos/internal/adapters/cli"
	"stock-pos/internal/app"
	"stock-pos/internal/config"
	"stock-pos/internal/core"
	"stock-pos/internal/db"
	"stock-pos/internal/devseed"
	"stock-pos/internal/logging"
	"stock-pos/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(bootstrap).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, opens the database and wires the services.
func bootstrap(ctx context.Context) (*cli.Env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}

	ledger := core.NewStockLedger(pool, logger)
	productService := core.NewProductService(pool, ledger, logger)
	saleService := core.NewSaleService(pool, ledger, logger)
	reportingService := core.NewReportingService(pool, nil, 0, logger)
	userService := core.NewUserService(pool)
	seeder := devseed.New(pool, userService, productService, saleService, logger)

	env := &cli.Env{
		Svc: app.NewAppService(productService, saleService, reportingService, userService, seeder),
		Migrate: func(ctx context.Context) error {
			return db.Migrate(ctx, pool, migrations.Files, logger)
		},
	}
	return env, pool.Close, nil
}

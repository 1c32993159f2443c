package core_test

import (
	"context"
	"os"
	"testing"

	"stock-pos/internal/core"
	"stock-pos/internal/db"
	"stock-pos/internal/logging"
	"stock-pos/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type testEnv struct {
	ctx      context.Context
	pool     *pgxpool.Pool
	ledger   *core.StockLedger
	products core.ProductService
	sales    core.SaleService
	reports  core.ReportingService
	users    core.UserService
	actor    core.Actor
}

func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; every test truncates it.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	log := logging.Discard()
	if err := db.Migrate(ctx, pool, migrations.Files, log); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE inventory_movements, sale_items, sales, products, users RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	var userID int64
	err = pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES ('tester', 'x', 'ADMIN') RETURNING id",
	).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}

	ledger := core.NewStockLedger(pool, log)
	return &testEnv{
		ctx:      ctx,
		pool:     pool,
		ledger:   ledger,
		products: core.NewProductService(pool, ledger, log),
		sales:    core.NewSaleService(pool, ledger, log),
		reports:  core.NewReportingService(pool, nil, 0, log),
		users:    core.NewUserService(pool),
		actor:    core.Actor{UserID: userID},
	}
}

// seedProduct inserts a catalog product and fails the test on error.
func (e *testEnv) seedProduct(t *testing.T, name, price string, stock, minimum int) *core.Product {
	t.Helper()
	p, err := e.products.CreateProduct(e.ctx, core.CreateProductInput{
		Name:         name,
		UnitPrice:    core.ParseMoney(price),
		CurrentStock: stock,
		MinimumStock: minimum,
	})
	if err != nil {
		t.Fatalf("Failed to seed product %s: %v", name, err)
	}
	return p
}

func (e *testEnv) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := e.products.GetProduct(e.ctx, id)
	if err != nil {
		t.Fatalf("GetProduct(%d) failed: %v", id, err)
	}
	return p.CurrentStock
}

// countRows runs a COUNT(*) query.
func (e *testEnv) countRows(t *testing.T, sql string, args ...any) int {
	t.Helper()
	var n int
	if err := e.pool.QueryRow(e.ctx, sql, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

// netMovement is Σ IN − Σ OUT for a product.
func (e *testEnv) netMovement(t *testing.T, id int64) int {
	t.Helper()
	var n int
	err := e.pool.QueryRow(e.ctx, `
		SELECT COALESCE(SUM(CASE WHEN movement_type = 'IN' THEN quantity ELSE -quantity END), 0)::int
		FROM inventory_movements WHERE product_id = $1
	`, id).Scan(&n)
	if err != nil {
		t.Fatalf("net movement query failed: %v", err)
	}
	return n
}

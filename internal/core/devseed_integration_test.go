package core_test

import (
	"testing"
	"time"

	"stock-pos/internal/devseed"
	"stock-pos/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo_CountsMatchDatabase(t *testing.T) {
	env := setupTestDB(t)
	seeder := devseed.New(env.pool, env.users, env.products, env.sales, logging.Discard())
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	res, err := seeder.SeedDemo(env.ctx, env.actor, today)
	require.NoError(t, err)

	assert.Equal(t, 30, res.Products)
	assert.Equal(t, res.Products, env.countRows(t, "SELECT COUNT(*) FROM products"))
	assert.Equal(t, res.Sales, env.countRows(t, "SELECT COUNT(*) FROM sales"))
	assert.Equal(t, res.Lines, env.countRows(t, "SELECT COUNT(*) FROM sale_items"))
	assert.Equal(t, res.Restocks, env.countRows(t, "SELECT COUNT(*) FROM inventory_movements WHERE reason = 'restock'"))
	assert.Equal(t, res.LowStock, env.countRows(t, "SELECT COUNT(*) FROM products WHERE current_stock < minimum_stock"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM products WHERE current_stock < 0"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sales WHERE sale_date > $1", today))
}

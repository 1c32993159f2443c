package core_test

import (
	"errors"
	"math"
	"testing"

	"stock-pos/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockLedger_ApplyDeltaWritesMovement(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Mug", "4.50", 10, 2)

	updated, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{
		ProductID: p.ID,
		Delta:     -4,
		Reason:    "breakage",
		Actor:     env.actor,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.CurrentStock)
	assert.Equal(t, 6, env.stockOf(t, p.ID))

	var typ, reason string
	var qty int
	err = env.pool.QueryRow(env.ctx,
		"SELECT movement_type, quantity, reason FROM inventory_movements WHERE product_id = $1", p.ID,
	).Scan(&typ, &qty, &reason)
	require.NoError(t, err)
	assert.Equal(t, "OUT", typ)
	assert.Equal(t, 4, qty)
	assert.Equal(t, "breakage", reason)
}

func TestStockLedger_RejectsNegativeResult(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Plate", "3.00", 1, 0)

	_, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: -2, Actor: env.actor})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientStock))

	shortfalls := core.ShortfallsOf(err)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, core.Shortfall{ProductID: p.ID, ProductName: "Plate", Requested: 2, Available: 1}, shortfalls[0])

	assert.Equal(t, 1, env.stockOf(t, p.ID))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM inventory_movements"))
}

func TestStockLedger_ValidatesInput(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Bowl", "2.00", 5, 0)

	_, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: 0, Actor: env.actor})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "zero delta: %v", err)

	_, err = env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: 1})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "missing actor: %v", err)

	_, err = env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID + 999, Delta: 1, Actor: env.actor})
	assert.True(t, errors.Is(err, core.ErrNotFound), "unknown product: %v", err)

	_, err = env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: math.MaxInt32 + 1, Actor: env.actor})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "oversized delta: %v", err)
}

func TestStockLedger_RejectsStockAboveInt32(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Saucer", "1.00", math.MaxInt32-1, 0)

	_, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: 2, Actor: env.actor})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
	assert.Equal(t, math.MaxInt32-1, env.stockOf(t, p.ID))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM inventory_movements"))

	updated, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: 1, Actor: env.actor})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, updated.CurrentStock)
}

func TestStockLedger_DefaultReasonFollowsSign(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Spoon", "1.00", 5, 0)

	_, err := env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: 3, Actor: env.actor})
	require.NoError(t, err)
	_, err = env.ledger.ApplyDelta(env.ctx, core.DeltaInput{ProductID: p.ID, Delta: -1, Actor: env.actor})
	require.NoError(t, err)

	rows, err := env.pool.Query(env.ctx, "SELECT reason FROM inventory_movements ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	var reasons []string
	for rows.Next() {
		var r string
		require.NoError(t, rows.Scan(&r))
		reasons = append(reasons, r)
	}
	assert.Equal(t, []string{core.ReasonAdjustmentUp, core.ReasonAdjustmentDown}, reasons)
}

// Stock always equals the initial stock plus the net of the movement ledger.
func TestStockLedger_StockMatchesMovements(t *testing.T) {
	env := setupTestDB(t)
	a := env.seedProduct(t, "Glass", "2.50", 20, 5)
	b := env.seedProduct(t, "Jar", "6.00", 8, 2)

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: a.ID, Quantity: 7}, {ProductID: b.ID, Quantity: 3}},
		Actor: env.actor,
	})
	require.NoError(t, err)

	_, err = env.products.Restock(env.ctx, core.RestockInput{ProductID: &b.ID, Quantity: 10, Actor: env.actor})
	require.NoError(t, err)

	_, err = env.products.UpdateProduct(env.ctx, core.UpdateProductInput{ID: a.ID, DeltaStock: -2, Actor: env.actor})
	require.NoError(t, err)

	// Rejected operations must not leave anything behind.
	_, err = env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: b.ID, Quantity: 1000}},
		Actor: env.actor,
	})
	require.Error(t, err)

	assert.Equal(t, 20+env.netMovement(t, a.ID), env.stockOf(t, a.ID))
	assert.Equal(t, 8+env.netMovement(t, b.ID), env.stockOf(t, b.ID))
	assert.Equal(t, 11, env.stockOf(t, a.ID))
	assert.Equal(t, 15, env.stockOf(t, b.ID))
}

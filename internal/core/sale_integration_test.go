package core_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"stock-pos/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSale_DecrementsStockAndRecordsMovement(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Teapot", "12.50", 10, 5)

	sale, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		BuyerName: "  Ana  ",
		Items:     []core.SaleItemInput{{ProductID: p.ID, Quantity: 3}},
		Actor:     env.actor,
	})
	require.NoError(t, err)

	assert.Equal(t, "37.50", sale.Total.String())
	assert.Equal(t, "Ana", sale.BuyerName)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, "12.50", sale.Lines[0].UnitPrice.String())
	assert.Equal(t, "37.50", sale.Lines[0].Subtotal.String())
	assert.Equal(t, "Teapot", sale.Lines[0].ProductName)

	assert.Equal(t, 7, env.stockOf(t, p.ID))

	var typ, reason string
	var qty int
	var saleID *int64
	err = env.pool.QueryRow(env.ctx,
		"SELECT movement_type, quantity, reason, sale_id FROM inventory_movements WHERE product_id = $1", p.ID,
	).Scan(&typ, &qty, &reason, &saleID)
	require.NoError(t, err)
	assert.Equal(t, "OUT", typ)
	assert.Equal(t, 3, qty)
	assert.Equal(t, core.ReasonSale, reason)
	require.NotNil(t, saleID)
	assert.Equal(t, sale.ID, *saleID)
}

func TestCreateSale_InsufficientStockLeavesStockUntouched(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Saucer", "2.00", 2, 0)

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 5}},
		Actor: env.actor,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientStock))

	shortfalls := core.ShortfallsOf(err)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, 5, shortfalls[0].Requested)
	assert.Equal(t, 2, shortfalls[0].Available)

	assert.Equal(t, 2, env.stockOf(t, p.ID))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sales"))
}

func TestCreateSale_ReportsEveryShortfall(t *testing.T) {
	env := setupTestDB(t)
	a := env.seedProduct(t, "Fork", "1.00", 1, 0)
	b := env.seedProduct(t, "Knife", "1.00", 10, 0)
	c := env.seedProduct(t, "Ladle", "1.00", 0, 0)

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
			{ProductID: c.ID, Quantity: 4},
		},
		Actor: env.actor,
	})
	require.Error(t, err)

	shortfalls := core.ShortfallsOf(err)
	require.Len(t, shortfalls, 2)
	assert.Equal(t, a.ID, shortfalls[0].ProductID)
	assert.Equal(t, c.ID, shortfalls[1].ProductID)
}

// Repeated lines for one product are checked against their combined quantity.
func TestCreateSale_RepeatedProductUsesCumulativeDemand(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Napkin", "0.25", 5, 0)

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 3}, {ProductID: p.ID, Quantity: 3}},
		Actor: env.actor,
	})
	require.Error(t, err)
	shortfalls := core.ShortfallsOf(err)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, 6, shortfalls[0].Requested)
	assert.Equal(t, 5, env.stockOf(t, p.ID))

	sale, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 2}, {ProductID: p.ID, Quantity: 3}},
		Actor: env.actor,
	})
	require.NoError(t, err)
	assert.Len(t, sale.Lines, 2)
	assert.Equal(t, "1.25", sale.Total.String())
	assert.Equal(t, 0, env.stockOf(t, p.ID))
}

func TestCreateSale_AtomicWhenAnyLineFails(t *testing.T) {
	env := setupTestDB(t)
	var items []core.SaleItemInput
	var ids []int64
	for i, stock := range []int{5, 5, 1, 5, 5} {
		p := env.seedProduct(t, "Item "+string(rune('A'+i)), "3.00", stock, 0)
		ids = append(ids, p.ID)
		items = append(items, core.SaleItemInput{ProductID: p.ID, Quantity: 2})
	}

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{Items: items, Actor: env.actor})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientStock))

	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sales"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sale_items"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM inventory_movements"))
	for i, id := range ids {
		assert.Equal(t, []int{5, 5, 1, 5, 5}[i], env.stockOf(t, id))
	}
}

// The pre-check passes on a stale read; the locked re-check inside the transaction must
// still reject the sale and discard the header it already inserted.
func TestCreateSale_RollsBackWhenStockDropsWhileWaitingForLock(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Ladle", "4.00", 5, 0)

	holder, err := env.pool.Begin(env.ctx)
	require.NoError(t, err)
	defer holder.Rollback(env.ctx)
	_, err = holder.Exec(env.ctx, "SELECT id FROM products WHERE id = $1 FOR UPDATE", p.ID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
			Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 3}},
			Actor: env.actor,
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		var waiting int
		err := env.pool.QueryRow(env.ctx, `
			SELECT COUNT(*) FROM pg_stat_activity
			WHERE datname = current_database() AND wait_event_type = 'Lock'
		`).Scan(&waiting)
		return err == nil && waiting > 0
	}, 10*time.Second, 20*time.Millisecond, "sale never blocked on the product lock")

	_, err = holder.Exec(env.ctx, "UPDATE products SET current_stock = 0 WHERE id = $1", p.ID)
	require.NoError(t, err)
	require.NoError(t, holder.Commit(env.ctx))

	select {
	case err = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("sale did not finish after the lock was released")
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientStock), "got %v", err)

	shortfalls := core.ShortfallsOf(err)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, core.Shortfall{ProductID: p.ID, ProductName: "Ladle", Requested: 3, Available: 0}, shortfalls[0])

	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sales"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sale_items"))
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM inventory_movements"))
	assert.Equal(t, 0, env.stockOf(t, p.ID))
}

func TestCreateSale_TotalIsSumOfSubtotals(t *testing.T) {
	env := setupTestDB(t)
	a := env.seedProduct(t, "Tray", "19.99", 10, 0)
	b := env.seedProduct(t, "Cloth", "0.35", 10, 0)

	sale, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: a.ID, Quantity: 3}, {ProductID: b.ID, Quantity: 7}},
		Actor: env.actor,
	})
	require.NoError(t, err)

	stored, err := env.sales.GetSale(env.ctx, sale.ID)
	require.NoError(t, err)
	sum := core.ZeroMoney
	for _, l := range stored.Lines {
		assert.True(t, l.UnitPrice.Mul(l.Quantity).Equal(l.Subtotal))
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, sum.Equal(stored.Total))
	assert.Equal(t, "62.42", stored.Total.String())
	assert.Equal(t, a.ID, *stored.Lines[0].ProductID)
	assert.Equal(t, b.ID, *stored.Lines[1].ProductID)
}

func TestCreateSale_ValidatesBeforeWriting(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Cup", "1.00", 3, 0)

	cases := map[string]core.CreateSaleInput{
		"no items":      {Actor: env.actor},
		"zero quantity": {Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 0}}, Actor: env.actor},
		"bad product":   {Items: []core.SaleItemInput{{ProductID: 0, Quantity: 1}}, Actor: env.actor},
		"no actor":      {Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 1}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.sales.CreateSale(env.ctx, in)
			assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
		})
	}

	_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Items: []core.SaleItemInput{{ProductID: p.ID + 100, Quantity: 1}},
		Actor: env.actor,
	})
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	assert.Equal(t, 0, env.countRows(t, "SELECT COUNT(*) FROM sales"))
}

func TestCreateSale_UsesGivenDate(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Pitcher", "8.00", 3, 0)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	sale, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
		Date:  &date,
		Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 1}},
		Actor: env.actor,
	})
	require.NoError(t, err)

	stored, err := env.sales.GetSale(env.ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", stored.Date.Format(core.DateLayout))
}

func TestGetSale_NotFound(t *testing.T) {
	env := setupTestDB(t)
	_, err := env.sales.GetSale(env.ctx, 12345)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestListSales_NewestFirstWithLines(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Coaster", "1.50", 10, 0)
	older := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Time{older, newer} {
		d := d
		_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{
			Date:  &d,
			Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 1}},
			Actor: env.actor,
		})
		require.NoError(t, err)
	}

	sales, err := env.sales.ListSales(env.ctx, 10)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "2025-02-10", sales[0].Date.Format(core.DateLayout))
	assert.Len(t, sales[0].Lines, 1)
	assert.Len(t, sales[1].Lines, 1)
}

// Two buyers race for the last unit: exactly one wins.
func TestCreateSale_ConcurrentLastUnit(t *testing.T) {
	env := setupTestDB(t)
	p := env.seedProduct(t, "Last One", "9.00", 1, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sales.CreateSale(env.ctx, core.CreateSaleInput{
				Items: []core.SaleItemInput{{ProductID: p.ID, Quantity: 1}},
				Actor: env.actor,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, core.ErrInsufficientStock), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, env.stockOf(t, p.ID))
	assert.Equal(t, 1, env.countRows(t, "SELECT COUNT(*) FROM sales"))
}

// Sales over the same products in opposite line order must not deadlock.
func TestCreateSale_ConcurrentOppositeOrder(t *testing.T) {
	env := setupTestDB(t)
	a := env.seedProduct(t, "Left", "1.00", 100, 0)
	b := env.seedProduct(t, "Right", "1.00", 100, 0)

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)
	for i := 0; i < rounds; i++ {
		for _, items := range [][]core.SaleItemInput{
			{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 1}},
			{{ProductID: b.ID, Quantity: 1}, {ProductID: a.ID, Quantity: 1}},
		} {
			wg.Add(1)
			go func(items []core.SaleItemInput) {
				defer wg.Done()
				_, err := env.sales.CreateSale(env.ctx, core.CreateSaleInput{Items: items, Actor: env.actor})
				errs <- err
			}(items)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 100-rounds*2, env.stockOf(t, a.ID))
	assert.Equal(t, 100-rounds*2, env.stockOf(t, b.ID))
	assert.Equal(t, 100+env.netMovement(t, a.ID), env.stockOf(t, a.ID))
}

// Package devseed fills a development database with users and demo sales history.
//
// Everything here goes through the core services, so demo data obeys the same stock
// rules as real traffic. It is reachable only from the pos CLI.
package devseed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"stock-pos/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	demoSeed          = 42
	demoProductCount  = 30
	demoMonths        = 24
	demoAlertProducts = 6
	demoAdjustReason  = "demo adjustment"
)

var baseNames = []string{
	"Ceramic Mug", "Dessert Plate", "Soup Bowl", "Glass Tumbler", "Wooden Spoon",
	"Small Teapot", "Large Jug", "Decorative Pot", "Handmade Bowl", "Square Tray",
	"Ground Coffee 250g", "Herbal Tea 100g", "Raw Honey 300g", "Sea Salt 500g", "Cane Sugar 500g",
	"Scented Candle", "A5 Notebook", "Black Pen", "Leather Keyring", "Coaster",
}

// BaseUser is one of the accounts created by SeedUsers.
type BaseUser struct {
	Username string
	Password string
	Role     core.Role
}

// BaseUsers are the development accounts.
var BaseUsers = []BaseUser{
	{Username: "admin", Password: "admin", Role: core.RoleAdmin},
	{Username: "seller", Password: "seller", Role: core.RoleSeller},
}

// DemoResult counts what SeedDemo wrote.
type DemoResult struct {
	Products int `json:"products"`
	Sales    int `json:"sales"`
	Lines    int `json:"lines"`
	Restocks int `json:"restocks"`
	Months   int `json:"months"`
	LowStock int `json:"low_stock"`
}

type Seeder struct {
	pool     *pgxpool.Pool
	users    core.UserService
	products core.ProductService
	sales    core.SaleService
	log      logrus.FieldLogger
}

func New(pool *pgxpool.Pool, users core.UserService, products core.ProductService, sales core.SaleService, log logrus.FieldLogger) *Seeder {
	return &Seeder{pool: pool, users: users, products: products, sales: sales, log: log}
}

// ResetData deletes every user, product, sale and movement.
func (s *Seeder) ResetData(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE TABLE inventory_movements, sale_items, sales, products, users RESTART IDENTITY CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to reset data: %w", err)
	}
	s.log.Warn("all data reset")
	return nil
}

// SeedUsers creates the base accounts or resets their passwords.
func (s *Seeder) SeedUsers(ctx context.Context) ([]*core.User, error) {
	out := make([]*core.User, 0, len(BaseUsers))
	for _, bu := range BaseUsers {
		u, err := s.users.UpsertUser(ctx, bu.Username, bu.Password, bu.Role)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// SeedDemo tops the catalog up to 30 products and writes 24 months of sales ending in
// the month of today, with a restock at the end of each month. Finally a few products
// are pushed under their minimum so the alert list is not empty. The same database
// state and today always produce the same data.
//
// Each product, sale and restock commits on its own. A failure part way through leaves
// the rows written so far in place; run ResetData (pos reset-data) before seeding again.
func (s *Seeder) SeedDemo(ctx context.Context, actor core.Actor, today time.Time) (*DemoResult, error) {
	rng := rand.New(rand.NewSource(demoSeed))
	res := &DemoResult{Months: demoMonths}

	existing, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}
	for _, in := range demoCatalog(rng, names, len(existing)) {
		if _, err := s.products.CreateProduct(ctx, in); err != nil {
			return nil, err
		}
	}

	all, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	catalog := all
	if len(catalog) > demoProductCount {
		catalog = catalog[:demoProductCount]
	}
	res.Products = len(all)
	if len(catalog) == 0 {
		return res, nil
	}

	stock := make(map[int64]int, len(catalog))
	for _, p := range catalog {
		stock[p.ID] = p.CurrentStock
	}

	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < demoMonths; i++ {
		sales := 18 + rng.Intn(19)
		for j := 0; j < sales; j++ {
			items := pickLines(rng, catalog, stock)
			if len(items) == 0 {
				continue
			}
			date := randomDay(rng, month)
			sale, err := s.sales.CreateSale(ctx, core.CreateSaleInput{Date: &date, Items: items, Actor: actor})
			if err != nil {
				return nil, fmt.Errorf("demo sale %s: %w", date.Format(core.DateLayout), err)
			}
			for _, it := range items {
				stock[it.ProductID] -= it.Quantity
			}
			res.Sales++
			res.Lines += len(sale.Lines)
		}

		restockDate := randomDay(rng, month)
		for _, idx := range rng.Perm(len(catalog))[:restockCount(len(catalog))] {
			p := catalog[idx]
			qty := 40 + rng.Intn(121)
			if _, err := s.products.Restock(ctx, core.RestockInput{
				ProductID: &p.ID,
				Quantity:  qty,
				Date:      &restockDate,
				Actor:     actor,
			}); err != nil {
				return nil, err
			}
			stock[p.ID] += qty
			res.Restocks++
		}

		month = month.AddDate(0, -1, 0)
	}

	alerts := demoAlertProducts
	if alerts > len(catalog) {
		alerts = len(catalog)
	}
	for _, idx := range rng.Perm(len(catalog))[:alerts] {
		p := catalog[idx]
		target := p.MinimumStock - (1 + rng.Intn(3))
		if target < 0 {
			target = 0
		}
		if stock[p.ID] <= target {
			continue
		}
		if _, err := s.products.UpdateProduct(ctx, core.UpdateProductInput{
			ID:         p.ID,
			DeltaStock: target - stock[p.ID],
			Reason:     demoAdjustReason,
			Actor:      actor,
		}); err != nil {
			return nil, err
		}
		stock[p.ID] = target
	}

	low, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	res.LowStock = len(low)

	s.log.WithFields(logrus.Fields{
		"products":  res.Products,
		"sales":     res.Sales,
		"lines":     res.Lines,
		"restocks":  res.Restocks,
		"low_stock": res.LowStock,
	}).Info("demo data seeded")
	return res, nil
}

// demoCatalog returns the products needed to bring the catalog up to demoProductCount.
func demoCatalog(rng *rand.Rand, taken map[string]bool, have int) []core.CreateProductInput {
	var out []core.CreateProductInput
	for idx := 1; have+len(out) < demoProductCount; idx++ {
		name := fmt.Sprintf("%s #%d", baseNames[(idx-1)%len(baseNames)], idx)
		if taken[name] {
			continue
		}
		taken[name] = true
		out = append(out, core.CreateProductInput{
			Name:         name,
			UnitPrice:    core.NewMoney(decimal.New(int64(1000+rng.Intn(8000)), -2)),
			CurrentStock: 180 + rng.Intn(241),
			MinimumStock: 5 + rng.Intn(21),
		})
	}
	return out
}

// pickLines draws 2 to 6 distinct products and a quantity of 1 to 10 for each,
// clamped to the stock left. Products that are out of stock are skipped.
func pickLines(rng *rand.Rand, catalog []core.Product, stock map[int64]int) []core.SaleItemInput {
	k := 2 + rng.Intn(5)
	if k > len(catalog) {
		k = len(catalog)
	}
	var items []core.SaleItemInput
	for _, idx := range rng.Perm(len(catalog))[:k] {
		p := catalog[idx]
		want := 1 + rng.Intn(10)
		left := stock[p.ID]
		if left <= 0 {
			continue
		}
		if want > left {
			want = left
		}
		items = append(items, core.SaleItemInput{ProductID: p.ID, Quantity: want})
	}
	return items
}

func restockCount(n int) int {
	c := n * 6 / 10
	if c < 1 {
		return 1
	}
	return c
}

func randomDay(rng *rand.Rand, month time.Time) time.Time {
	return time.Date(month.Year(), month.Month(), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
}

package app

import (
	"context"

	"stock-pos/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int64) (*UserResult, error)

	// ResolveActor returns the actor for an existing username. Used by tools without a session.
	ResolveActor(ctx context.Context, username string) (core.Actor, error)

	// ListProducts returns the catalog ordered by id.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	GetProduct(ctx context.Context, id int64) (*ProductResult, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error)

	// UpdateProduct edits product fields and optionally adjusts stock in one transaction.
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (*ProductResult, error)

	// Restock adds units to a product found by id or exact name.
	Restock(ctx context.Context, req RestockRequest) (*ProductResult, error)

	// DeleteProduct removes a product and its movements. Products with sales need force.
	DeleteProduct(ctx context.Context, id int64, force bool) error

	// ListLowStock returns the products below their minimum stock, most urgent first.
	ListLowStock(ctx context.Context) (*LowStockResult, error)

	// CreateSale records a sale and decrements stock atomically.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error)

	GetSale(ctx context.Context, id int64) (*SaleResult, error)

	// ListSales returns the most recent sales, newest first.
	ListSales(ctx context.Context, limit int) (*SaleListResult, error)

	// ListMovements returns inventory movements, newest first.
	ListMovements(ctx context.Context, req ListMovementsRequest) (*MovementListResult, error)

	// DashboardSummary returns the sales overview for the current month.
	DashboardSummary(ctx context.Context) (*core.DashboardSummary, error)

	// ResetData deletes all users, products, sales and movements. Development only.
	ResetData(ctx context.Context) error

	// SeedUsers creates or resets the base ADMIN and SELLER accounts. Development only.
	SeedUsers(ctx context.Context) (*UserListResult, error)

	// SeedDemo writes demo catalog and sales history on behalf of username. Development only.
	SeedDemo(ctx context.Context, username string) (*DemoResult, error)
}

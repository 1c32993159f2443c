package core

import (
	"context"
	"time"
)

// CreateProductInput adds a catalog item. The initial stock is catalog data and
// writes no movement.
type CreateProductInput struct {
	Name         string
	UnitPrice    Money
	CurrentStock int
	MinimumStock int
}

// UpdateProductInput edits a product. Nil fields are left unchanged; an empty Name is
// treated as nil. A non-zero DeltaStock goes through the StockLedger.
type UpdateProductInput struct {
	ID           int64
	Name         *string
	UnitPrice    *Money
	MinimumStock *int
	DeltaStock   int
	Description  string
	Reason       string
	Date         *time.Time
	Actor        Actor
}

// RestockInput adds units to a product found by ProductID or, when that is nil, by exact Name.
type RestockInput struct {
	ProductID *int64
	Name      string
	Quantity  int
	Reason    string
	Date      *time.Time
	Actor     Actor
}

// ProductService owns the catalog and every non-sale stock adjustment.
type ProductService interface {
	CreateProduct(ctx context.Context, in CreateProductInput) (*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	// ListProducts returns the whole catalog ordered by id.
	ListProducts(ctx context.Context) ([]Product, error)

	UpdateProduct(ctx context.Context, in UpdateProductInput) (*Product, error)
	Restock(ctx context.Context, in RestockInput) (*Product, error)
	// DeleteProduct refuses with ErrConflict when sale lines reference the product,
	// unless force is set. Deleting removes the product's movements as well.
	DeleteProduct(ctx context.Context, id int64, force bool) error

	// ListLowStock returns products with current_stock < minimum_stock, most urgent first.
	ListLowStock(ctx context.Context) ([]Product, error)
}

package app

import "stock-pos/internal/core"

// CreateProductRequest is the input for adding a catalog product.
type CreateProductRequest struct {
	Name         string
	UnitPrice    core.Money
	CurrentStock int
	MinimumStock int
}

// UpdateProductRequest is the input for editing a product. Nil fields stay unchanged.
type UpdateProductRequest struct {
	ID           int64
	Name         *string
	UnitPrice    *core.Money
	MinimumStock *int
	DeltaStock   int
	Description  string
	Reason       string
	Date         string // YYYY-MM-DD, empty means today
	Actor        core.Actor
}

// RestockRequest is the input for adding stock. ProductID wins over Name when both are set.
type RestockRequest struct {
	ProductID *int64
	Name      string
	Quantity  int
	Reason    string
	Date      string // YYYY-MM-DD, empty means today
	Actor     core.Actor
}

// CreateSaleRequest is the input for recording a sale.
type CreateSaleRequest struct {
	Date      string // YYYY-MM-DD, empty means today
	BuyerName string
	Items     []core.SaleItemInput
	Actor     core.Actor
}

// ListMovementsRequest filters ListMovements.
type ListMovementsRequest struct {
	ProductID *int64
	From      string // YYYY-MM-DD, optional
	To        string // YYYY-MM-DD, optional
	Limit     int
}

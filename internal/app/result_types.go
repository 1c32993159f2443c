package app

import "stock-pos/internal/core"

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID   int64
	Username string
	Role     core.Role
}

// UserResult is returned by GetUser.
type UserResult struct {
	UserID   int64     `json:"id"`
	Username string    `json:"username"`
	Role     core.Role `json:"role"`
}

// UserListResult is returned by SeedUsers.
type UserListResult struct {
	Users []UserResult `json:"users"`
}

// ProductResult is returned by single-product operations.
type ProductResult struct {
	Product *core.Product
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// LowStockResult is returned by ListLowStock.
type LowStockResult struct {
	Items []core.Product `json:"items"`
	Count int            `json:"count"`
}

// SaleResult is returned by CreateSale and GetSale.
type SaleResult struct {
	Sale *core.Sale
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale
}

// MovementListResult is returned by ListMovements.
type MovementListResult struct {
	Movements []core.InventoryMovement
}

// DemoResult is returned by SeedDemo.
type DemoResult struct {
	Products int `json:"products"`
	Sales    int `json:"sales"`
	Lines    int `json:"lines"`
	Restocks int `json:"restocks"`
	Months   int `json:"months"`
	LowStock int `json:"low_stock"`
}

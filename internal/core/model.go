package core

import (
	"math"
	"time"
)

// maxQuantity bounds every stock level, quantity and delta so they fit the INTEGER columns.
const maxQuantity = math.MaxInt32

// Actor identifies the user on whose behalf a core operation runs.
// The outer auth layer resolves it; the core never reads session state.
type Actor struct {
	UserID int64
}

func (a Actor) valid() bool { return a.UserID > 0 }

// Product is a catalog item with its live stock level.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	UnitPrice    Money     `json:"unit_price"`
	CurrentStock int       `json:"current_stock"`
	MinimumStock int       `json:"minimum_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BelowMinimum reports whether the product should raise a low-stock alert.
func (p Product) BelowMinimum() bool {
	return p.CurrentStock < p.MinimumStock
}

// Sale is an immutable sale header. Total always equals the sum of its line subtotals.
type Sale struct {
	ID        int64          `json:"id"`
	Date      time.Time      `json:"date"`
	Total     Money          `json:"total"`
	BuyerName string         `json:"buyer_name"`
	CreatedBy int64          `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	Lines     []SaleLineItem `json:"items"`
}

// SaleLineItem is one product line of a sale. UnitPrice and ProductName are snapshots
// taken when the sale was committed. ProductID is nil only after a forced product delete.
type SaleLineItem struct {
	ID          int64  `json:"id"`
	SaleID      int64  `json:"sale_id"`
	ProductID   *int64 `json:"product_id"`
	ProductName string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	Subtotal    Money  `json:"subtotal"`
}

// Date layout used for sale and movement dates on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses an optional YYYY-MM-DD string. Empty input returns nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, invalidInput("date %q must be YYYY-MM-DD", s)
	}
	return &t, nil
}

func dateOrToday(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

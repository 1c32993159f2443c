package core

import (
	"context"
	"math"
	"time"
)

// SaleItemInput is one requested line of a sale.
type SaleItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateSaleInput is everything needed to record a sale. Date defaults to today.
type CreateSaleInput struct {
	Date      *time.Time
	BuyerName string
	Items     []SaleItemInput
	Actor     Actor
}

// SaleService records sales atomically against live stock.
type SaleService interface {
	// CreateSale validates the request, pre-checks stock for every line, then in one
	// transaction writes the header, the lines, one OUT movement per line and the final
	// total. Either all of it commits or none of it does.
	CreateSale(ctx context.Context, in CreateSaleInput) (*Sale, error)

	GetSale(ctx context.Context, id int64) (*Sale, error)

	// ListSales returns the most recent sales, newest first, with their lines.
	ListSales(ctx context.Context, limit int) ([]Sale, error)
}

func validateSaleInput(in CreateSaleInput) error {
	if len(in.Items) == 0 {
		return invalidInput("a sale needs at least one item")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return invalidInput("item %d: product id must be positive", i+1)
		}
		if it.Quantity <= 0 {
			return invalidInput("item %d: quantity must be greater than zero", i+1)
		}
		if it.Quantity > maxQuantity {
			return invalidInput("item %d: quantity cannot exceed %d", i+1, maxQuantity)
		}
	}
	if !in.Actor.valid() {
		return invalidInput("actor is required")
	}
	return nil
}

// shortfallsFor sums demand per product across all items and compares it with the stock
// returned by lookup. Shortfalls come back in first-appearance order. Demand saturates
// at math.MaxInt instead of wrapping, so an oversized total always reports a shortfall.
func shortfallsFor(items []SaleItemInput, lookup func(id int64) *Product) []Shortfall {
	demand := make(map[int64]int, len(items))
	var order []int64
	for _, it := range items {
		if _, ok := demand[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		if d := demand[it.ProductID]; it.Quantity > math.MaxInt-d {
			demand[it.ProductID] = math.MaxInt
		} else {
			demand[it.ProductID] = d + it.Quantity
		}
	}

	var out []Shortfall
	for _, id := range order {
		p := lookup(id)
		if demand[id] > p.CurrentStock {
			out = append(out, Shortfall{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   demand[id],
				Available:   p.CurrentStock,
			})
		}
	}
	return out
}

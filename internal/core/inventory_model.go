package core

import "time"

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Reasons written by the engines when the caller gives none.
const (
	ReasonSale           = "sale"
	ReasonRestock        = "restock"
	ReasonAdjustmentUp   = "adjustment +"
	ReasonAdjustmentDown = "adjustment -"
)

// InventoryMovement is an append-only audit record of one stock change.
// SaleID is set only for OUT movements caused by a sale.
type InventoryMovement struct {
	ID          int64        `json:"id"`
	ProductID   int64        `json:"product_id"`
	ProductName string       `json:"product_name,omitempty"` // joined from products
	Type        MovementType `json:"type"`
	Quantity    int          `json:"quantity"`
	Date        time.Time    `json:"date"`
	Reason      string       `json:"reason"`
	SaleID      *int64       `json:"sale_id,omitempty"`
	CreatedBy   int64        `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// DeltaInput is a signed stock change handed to the StockLedger.
type DeltaInput struct {
	ProductID int64
	Delta     int
	Reason    string
	Date      *time.Time
	SaleID    *int64
	Actor     Actor
}

func movementTypeFor(delta int) MovementType {
	if delta > 0 {
		return MovementIn
	}
	return MovementOut
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MovementReason picks the reason recorded for a manual adjustment:
// the description wins over an explicit reason, which wins over a label for the sign.
func MovementReason(description, reason string, delta int) string {
	switch {
	case description != "":
		return description
	case reason != "":
		return reason
	case delta > 0:
		return ReasonAdjustmentUp
	default:
		return ReasonAdjustmentDown
	}
}

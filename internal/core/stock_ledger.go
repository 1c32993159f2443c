package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"stock-pos/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// StockLedger is the only writer of products.current_stock and inventory_movements.
// Every stock change it applies is paired with exactly one movement row in the same
// transaction, and no change may take stock below zero.
type StockLedger struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

func NewStockLedger(pool *pgxpool.Pool, log logrus.FieldLogger) *StockLedger {
	return &StockLedger{pool: pool, log: log}
}

// pgxQuerier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const productColumns = "id, name, unit_price, current_stock, minimum_stock, created_at, updated_at"

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.CurrentStock, &p.MinimumStock, &p.CreatedAt, &p.UpdatedAt)
}

func getProduct(ctx context.Context, q pgxQuerier, id int64) (*Product, error) {
	var p Product
	err := scanProduct(q.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product %d does not exist", id)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return &p, nil
}

// lockProduct reads a product under an exclusive row lock held until tx ends.
func lockProduct(ctx context.Context, tx pgx.Tx, id int64) (*Product, error) {
	var p Product
	err := scanProduct(tx.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product %d does not exist", id)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
	}
	return &p, nil
}

// lockProducts locks every distinct id in ascending id order, so two requests touching
// the same products always queue on them in the same order.
func lockProducts(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]*Product, error) {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	rows, err := tx.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE",
		distinct,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[int64]*Product, len(distinct))
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		locked[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked products: %w", err)
	}

	for _, id := range distinct {
		if _, ok := locked[id]; !ok {
			return nil, notFound("product %d does not exist", id)
		}
	}
	return locked, nil
}

// ApplyDelta applies one signed stock change in its own transaction.
func (l *StockLedger) ApplyDelta(ctx context.Context, in DeltaInput) (*Product, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := l.ApplyDeltaTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock change: %w", err)
	}
	recordMovement(in.Delta)
	return p, nil
}

// ApplyDeltaTx applies a signed stock change within the caller's transaction:
// lock the product row, check the result stays >= 0, write the new stock and append
// one IN (delta > 0) or OUT (delta < 0) movement of |delta| units.
// On InsufficientStock nothing has been written.
func (l *StockLedger) ApplyDeltaTx(ctx context.Context, tx pgx.Tx, in DeltaInput) (*Product, error) {
	if in.ProductID <= 0 {
		return nil, invalidInput("product id must be positive")
	}
	if in.Delta == 0 {
		return nil, invalidInput("stock delta must be non-zero")
	}
	if in.Delta > maxQuantity || in.Delta < -maxQuantity {
		return nil, invalidInput("stock delta cannot exceed %d units", maxQuantity)
	}
	if !in.Actor.valid() {
		return nil, invalidInput("actor is required")
	}

	p, err := lockProduct(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}

	newStock := p.CurrentStock + in.Delta
	if newStock < 0 {
		return nil, insufficientStock(Shortfall{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   -in.Delta,
			Available:   p.CurrentStock,
		})
	}
	if newStock > maxQuantity {
		return nil, invalidInput("product %d stock would exceed %d units", p.ID, maxQuantity)
	}

	err = tx.QueryRow(ctx, `
		UPDATE products SET current_stock = $1, updated_at = now()
		WHERE id = $2
		RETURNING updated_at
	`, newStock, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for product %d: %w", p.ID, err)
	}
	p.CurrentStock = newStock

	reason := in.Reason
	if reason == "" {
		reason = MovementReason("", "", in.Delta)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_movements (product_id, movement_type, quantity, movement_date, reason, sale_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, string(movementTypeFor(in.Delta)), absInt(in.Delta), dateOrToday(in.Date), reason, in.SaleID, in.Actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory movement for product %d: %w", p.ID, err)
	}

	l.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"delta":      in.Delta,
		"stock":      newStock,
		"reason":     reason,
		"actor":      in.Actor.UserID,
	}).Debug("stock delta applied")

	return p, nil
}

// recordMovement counts a committed movement.
func recordMovement(delta int) {
	t := string(movementTypeFor(delta))
	metrics.StockMovements.WithLabelValues(t).Inc()
	metrics.StockUnits.WithLabelValues(t).Add(float64(absInt(delta)))
}

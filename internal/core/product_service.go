package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const pgUniqueViolation = "23505"

type productService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
	log    logrus.FieldLogger
}

func NewProductService(pool *pgxpool.Pool, ledger *StockLedger, log logrus.FieldLogger) ProductService {
	return &productService{pool: pool, ledger: ledger, log: log}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *productService) CreateProduct(ctx context.Context, in CreateProductInput) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("product name is required")
	}
	if in.UnitPrice.IsNegative() {
		return nil, invalidInput("unit price cannot be negative")
	}
	if in.CurrentStock < 0 || in.MinimumStock < 0 {
		return nil, invalidInput("stock levels cannot be negative")
	}
	if in.CurrentStock > maxQuantity || in.MinimumStock > maxQuantity {
		return nil, invalidInput("stock levels cannot exceed %d", maxQuantity)
	}

	var p Product
	err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (name, unit_price, current_stock, minimum_stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		name, in.UnitPrice, in.CurrentStock, in.MinimumStock,
	), &p)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("a product named %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create product %q: %w", name, err)
	}
	return &p, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return getProduct(ctx, s.pool, id)
}

func (s *productService) ListProducts(ctx context.Context) ([]Product, error) {
	return queryProducts(ctx, s.pool, "SELECT "+productColumns+" FROM products ORDER BY id")
}

func (s *productService) ListLowStock(ctx context.Context) ([]Product, error) {
	return queryProducts(ctx, s.pool, `
		SELECT `+productColumns+`
		FROM products
		WHERE current_stock < minimum_stock
		ORDER BY current_stock, minimum_stock, id`)
}

func queryProducts(ctx context.Context, q pgxQuerier, sql string, args ...any) ([]Product, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

// ── Adjustments ──────────────────────────────────────────────────────────────

func (s *productService) UpdateProduct(ctx context.Context, in UpdateProductInput) (*Product, error) {
	if in.ID <= 0 {
		return nil, invalidInput("product id must be positive")
	}
	if !in.Actor.valid() {
		return nil, invalidInput("actor is required")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, invalidInput("unit price cannot be negative")
	}
	if in.MinimumStock != nil && *in.MinimumStock < 0 {
		return nil, invalidInput("minimum stock cannot be negative")
	}
	if in.MinimumStock != nil && *in.MinimumStock > maxQuantity {
		return nil, invalidInput("minimum stock cannot exceed %d", maxQuantity)
	}
	if in.DeltaStock > maxQuantity || in.DeltaStock < -maxQuantity {
		return nil, invalidInput("stock delta cannot exceed %d units", maxQuantity)
	}
	var name *string
	if in.Name != nil {
		if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
			name = &trimmed
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockProduct(ctx, tx, in.ID); err != nil {
		return nil, err
	}

	if name != nil || in.UnitPrice != nil || in.MinimumStock != nil {
		_, err := tx.Exec(ctx, `
			UPDATE products
			SET name = COALESCE($2, name),
			    unit_price = COALESCE($3, unit_price),
			    minimum_stock = COALESCE($4, minimum_stock),
			    updated_at = now()
			WHERE id = $1
		`, in.ID, name, in.UnitPrice, in.MinimumStock)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, conflict("a product named %q already exists", *name)
			}
			return nil, fmt.Errorf("failed to update product %d: %w", in.ID, err)
		}
	}

	if in.DeltaStock != 0 {
		_, err := s.ledger.ApplyDeltaTx(ctx, tx, DeltaInput{
			ProductID: in.ID,
			Delta:     in.DeltaStock,
			Reason:    MovementReason(in.Description, in.Reason, in.DeltaStock),
			Date:      in.Date,
			Actor:     in.Actor,
		})
		if err != nil {
			return nil, err
		}
	}

	p, err := getProduct(ctx, tx, in.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	if in.DeltaStock != 0 {
		recordMovement(in.DeltaStock)
	}

	s.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"delta":      in.DeltaStock,
		"stock":      p.CurrentStock,
		"actor":      in.Actor.UserID,
	}).Info("product updated")
	return p, nil
}

func (s *productService) Restock(ctx context.Context, in RestockInput) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if in.ProductID == nil && name == "" {
		return nil, invalidInput("product id or name is required")
	}
	if in.ProductID != nil && *in.ProductID <= 0 {
		return nil, invalidInput("product id must be positive")
	}
	if in.Quantity <= 0 {
		return nil, invalidInput("quantity must be greater than zero")
	}
	if in.Quantity > maxQuantity {
		return nil, invalidInput("quantity cannot exceed %d", maxQuantity)
	}
	if !in.Actor.valid() {
		return nil, invalidInput("actor is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = ReasonRestock
	}

	var id int64
	if in.ProductID != nil {
		id = *in.ProductID
	} else {
		err := s.pool.QueryRow(ctx, "SELECT id FROM products WHERE name = $1", name).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, notFound("product %q does not exist", name)
			}
			return nil, fmt.Errorf("failed to resolve product %q: %w", name, err)
		}
	}

	p, err := s.ledger.ApplyDelta(ctx, DeltaInput{
		ProductID: id,
		Delta:     in.Quantity,
		Reason:    reason,
		Date:      in.Date,
		Actor:     in.Actor,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"quantity":   in.Quantity,
		"stock":      p.CurrentStock,
		"actor":      in.Actor.UserID,
	}).Info("product restocked")
	return p, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id int64, force bool) error {
	if id <= 0 {
		return invalidInput("product id must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := lockProduct(ctx, tx, id)
	if err != nil {
		return err
	}

	var sold bool
	err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM sale_items WHERE product_id = $1)", id).Scan(&sold)
	if err != nil {
		return fmt.Errorf("failed to check sale history for product %d: %w", id, err)
	}
	if sold && !force {
		return conflict("product %d has sales; pass force to delete it anyway", id)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM inventory_movements WHERE product_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete movements for product %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM products WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product delete: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"product_id": id,
		"name":       p.Name,
		"forced":     sold,
	}).Warn("product deleted")
	return nil
}

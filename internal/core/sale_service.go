package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-pos/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	defaultSaleListLimit = 50
	maxSaleListLimit     = 500
)

type saleService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
	log    logrus.FieldLogger
}

func NewSaleService(pool *pgxpool.Pool, ledger *StockLedger, log logrus.FieldLogger) SaleService {
	return &saleService{pool: pool, ledger: ledger, log: log}
}

func (s *saleService) CreateSale(ctx context.Context, in CreateSaleInput) (*Sale, error) {
	in.BuyerName = strings.TrimSpace(in.BuyerName)

	if err := validateSaleInput(in); err != nil {
		s.reject("invalid_input", in, err)
		return nil, err
	}

	// Advisory only: stock may still move before the locks below are taken.
	if err := s.precheck(ctx, in.Items); err != nil {
		s.reject(rejectionLabel(err), in, err)
		return nil, err
	}

	sale, err := s.commitSale(ctx, in)
	if err != nil {
		label := rejectionLabel(err)
		if errors.Is(err, ErrInsufficientStock) {
			label = "race_lost"
		}
		s.reject(label, in, err)
		return nil, err
	}

	metrics.SalesCreated.Inc()
	metrics.SaleAmount.Observe(sale.Total.Decimal().InexactFloat64())
	for _, line := range sale.Lines {
		recordMovement(-line.Quantity)
	}

	s.log.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"items":   len(sale.Lines),
		"total":   sale.Total.String(),
		"actor":   in.Actor.UserID,
	}).Info("sale created")
	return sale, nil
}

// precheck reads current stock without locks and reports every shortfall at once.
func (s *saleService) precheck(ctx context.Context, items []SaleItemInput) error {
	products := make(map[int64]*Product, len(items))
	for _, it := range items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := getProduct(ctx, s.pool, it.ProductID)
		if err != nil {
			return err
		}
		products[it.ProductID] = p
	}

	if shortfalls := shortfallsFor(items, func(id int64) *Product { return products[id] }); len(shortfalls) > 0 {
		return insufficientStock(shortfalls...)
	}
	return nil
}

func (s *saleService) commitSale(ctx context.Context, in CreateSaleInput) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	date := dateOrToday(in.Date)
	sale := &Sale{
		Date:      date,
		Total:     ZeroMoney,
		BuyerName: in.BuyerName,
		CreatedBy: in.Actor.UserID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (sale_date, total, buyer_name, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, date, ZeroMoney, nullIfEmpty(in.BuyerName), in.Actor.UserID).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale header: %w", err)
	}

	ids := make([]int64, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.ProductID
	}
	locked, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	// Re-verify under the locks; these are the numbers that will be written.
	if shortfalls := shortfallsFor(in.Items, func(id int64) *Product { return locked[id] }); len(shortfalls) > 0 {
		return nil, insufficientStock(shortfalls...)
	}

	total := ZeroMoney
	for _, it := range in.Items {
		p := locked[it.ProductID]
		productID := p.ID
		line := SaleLineItem{
			SaleID:      sale.ID,
			ProductID:   &productID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.UnitPrice,
			Subtotal:    p.UnitPrice.Mul(it.Quantity),
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, sale.ID, productID, line.ProductName, line.Quantity, line.UnitPrice, line.Subtotal).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale line for product %d: %w", productID, err)
		}

		updated, err := s.ledger.ApplyDeltaTx(ctx, tx, DeltaInput{
			ProductID: productID,
			Delta:     -it.Quantity,
			Reason:    ReasonSale,
			Date:      &date,
			SaleID:    &sale.ID,
			Actor:     in.Actor,
		})
		if err != nil {
			return nil, err
		}
		locked[productID] = updated

		total = total.Add(line.Subtotal)
		sale.Lines = append(sale.Lines, line)
	}

	if _, err := tx.Exec(ctx, "UPDATE sales SET total = $1 WHERE id = $2", total, sale.ID); err != nil {
		return nil, fmt.Errorf("failed to update sale total: %w", err)
	}
	sale.Total = total

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) reject(label string, in CreateSaleInput, err error) {
	metrics.SaleRejections.WithLabelValues(label).Inc()
	entry := s.log.WithFields(logrus.Fields{
		"reason": label,
		"items":  len(in.Items),
		"actor":  in.Actor.UserID,
	})
	if label == "error" {
		entry.WithError(err).Error("sale failed")
		return
	}
	entry.WithError(err).Info("sale rejected")
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}

func (s *saleService) GetSale(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	err := s.pool.QueryRow(ctx, `
		SELECT id, sale_date, total, COALESCE(buyer_name, ''), created_by, created_at
		FROM sales WHERE id = $1
	`, id).Scan(&sale.ID, &sale.Date, &sale.Total, &sale.BuyerName, &sale.CreatedBy, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale %d does not exist", id)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", id, err)
	}

	lines, err := s.loadLines(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	sale.Lines = lines[id]
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = defaultSaleListLimit
	}
	if limit > maxSaleListLimit {
		limit = maxSaleListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_date, total, COALESCE(buyer_name, ''), created_by, created_at
		FROM sales
		ORDER BY sale_date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := []Sale{}
	var ids []int64
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.Date, &sale.Total, &sale.BuyerName, &sale.CreatedBy, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	lines, err := s.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Lines = lines[sales[i].ID]
	}
	return sales, nil
}

// loadLines returns the lines of each sale in insertion order, keyed by sale id.
func (s *saleService) loadLines(ctx context.Context, saleIDs []int64) (map[int64][]SaleLineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, id
	`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]SaleLineItem, len(saleIDs))
	for rows.Next() {
		var l SaleLineItem
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		out[l.SaleID] = append(out[l.SaleID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale lines: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

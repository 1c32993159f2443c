package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock-pos/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ── Report types ──────────────────────────────────────────────────────────────

// MonthTotal is the sum of sale totals for one calendar month.
type MonthTotal struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total Money `json:"total"`
}

// TopProduct is a product ranked by units sold in the current month.
type TopProduct struct {
	Name  string `json:"name"`
	Units int    `json:"units"`
}

// DashboardSummary is the landing-page overview.
// DeltaPercent is nil when the previous month had no sales.
type DashboardSummary struct {
	Year           int          `json:"year"`
	Month          int          `json:"month"`
	MonthTotal     Money        `json:"month_total"`
	DeltaPercent   *float64     `json:"delta_pct_vs_prev"`
	InventoryUnits int          `json:"inventory_units"`
	Monthly        []MonthTotal `json:"monthly"` // last 12 months, oldest first
	TopProducts    []TopProduct `json:"top_products"`
}

// MovementFilter narrows ListMovements. Zero values mean no restriction.
type MovementFilter struct {
	ProductID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

const (
	defaultMovementLimit = 200
	maxMovementLimit     = 10000
	dashboardMonths      = 12
	topProductCount      = 5
)

// SummaryCache stores rendered dashboard summaries. A nil cache disables caching.
type SummaryCache interface {
	// Get loads key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only views over sales and stock.
type ReportingService interface {
	// DashboardSummary summarises the calendar month containing asOf and the 11 before it.
	DashboardSummary(ctx context.Context, asOf time.Time) (*DashboardSummary, error)

	// ListMovements returns movements newest first.
	ListMovements(ctx context.Context, f MovementFilter) ([]InventoryMovement, error)
}

type reportingService struct {
	pool     *pgxpool.Pool
	cache    SummaryCache
	cacheTTL time.Duration
	log      logrus.FieldLogger
}

// NewReportingService constructs a ReportingService. cache may be nil.
func NewReportingService(pool *pgxpool.Pool, cache SummaryCache, cacheTTL time.Duration, log logrus.FieldLogger) ReportingService {
	return &reportingService{pool: pool, cache: cache, cacheTTL: cacheTTL, log: log}
}

// lastMonths lists the n calendar months ending with the month of asOf, oldest first.
func lastMonths(asOf time.Time, n int) []MonthTotal {
	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]MonthTotal, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, -(n - 1 - i), 0)
		out[i] = MonthTotal{Year: m.Year(), Month: int(m.Month()), Total: ZeroMoney}
	}
	return out
}

// deltaPercent is the change from prev to cur in percent, rounded to 2 places.
func deltaPercent(cur, prev Money) *float64 {
	if prev.IsZero() {
		return nil
	}
	pct := cur.Decimal().Sub(prev.Decimal()).Div(prev.Decimal()).Mul(decimal.NewFromInt(100)).Round(2)
	f := pct.InexactFloat64()
	return &f
}

func dashboardCacheKey(asOf time.Time) string {
	return fmt.Sprintf("pos:dashboard:%04d-%02d-%02d", asOf.Year(), asOf.Month(), asOf.Day())
}

func (s *reportingService) DashboardSummary(ctx context.Context, asOf time.Time) (*DashboardSummary, error) {
	key := dashboardCacheKey(asOf)
	if s.cache != nil {
		var cached DashboardSummary
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.log.WithError(err).WithField("key", key).Warn("dashboard cache read failed")
		case found:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &cached, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	summary, err := s.buildSummary(ctx, asOf)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("dashboard cache write failed")
		}
	}
	return summary, nil
}

func (s *reportingService) buildSummary(ctx context.Context, asOf time.Time) (*DashboardSummary, error) {
	months := lastMonths(asOf, dashboardMonths)
	start := time.Date(months[0].Year, time.Month(months[0].Month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM sale_date)::int, EXTRACT(MONTH FROM sale_date)::int,
		       COALESCE(SUM(total::numeric), 0)::text
		FROM sales
		WHERE sale_date >= $1 AND sale_date < $2
		GROUP BY 1, 2
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	defer rows.Close()

	totals := make(map[[2]int]Money)
	for rows.Next() {
		var y, m int
		var total string
		if err := rows.Scan(&y, &m, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		totals[[2]int{y, m}] = ParseMoney(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sales: %w", err)
	}
	for i := range months {
		if t, ok := totals[[2]int{months[i].Year, months[i].Month}]; ok {
			months[i].Total = t
		}
	}

	cur := months[len(months)-1]
	prev := months[len(months)-2]
	summary := &DashboardSummary{
		Year:         cur.Year,
		Month:        cur.Month,
		MonthTotal:   cur.Total,
		DeltaPercent: deltaPercent(cur.Total, prev.Total),
		Monthly:      months,
		TopProducts:  []TopProduct{},
	}

	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(current_stock), 0)::int FROM products",
	).Scan(&summary.InventoryUnits); err != nil {
		return nil, fmt.Errorf("failed to sum inventory units: %w", err)
	}

	monthStart := time.Date(cur.Year, time.Month(cur.Month), 1, 0, 0, 0, 0, time.UTC)
	topRows, err := s.pool.Query(ctx, `
		SELECT si.product_name, SUM(si.quantity)::int AS units
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.sale_date >= $1 AND s.sale_date < $2
		GROUP BY si.product_name
		ORDER BY units DESC, si.product_name
		LIMIT $3
	`, monthStart, end, topProductCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var tp TopProduct
		if err := topRows.Scan(&tp.Name, &tp.Units); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		summary.TopProducts = append(summary.TopProducts, tp)
	}
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top products: %w", err)
	}

	return summary, nil
}

func (s *reportingService) ListMovements(ctx context.Context, f MovementFilter) ([]InventoryMovement, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}

	var where []string
	var args []any
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		where = append(where, fmt.Sprintf("m.product_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, dateOrToday(f.From))
		where = append(where, fmt.Sprintf("m.movement_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, dateOrToday(f.To))
		where = append(where, fmt.Sprintf("m.movement_date <= $%d", len(args)))
	}

	query := `
		SELECT m.id, m.product_id, p.name, m.movement_type, m.quantity, m.movement_date,
		       m.reason, m.sale_id, m.created_by, m.created_at
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf("\n\t\tORDER BY m.movement_date DESC, m.id DESC\n\t\tLIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := []InventoryMovement{}
	for rows.Next() {
		var m InventoryMovement
		var movementType string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &movementType, &m.Quantity, &m.Date,
			&m.Reason, &m.SaleID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Type = MovementType(movementType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}
	return movements, nil
}

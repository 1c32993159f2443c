package app

import (
	"context"
	"fmt"
	"time"

	"stock-pos/internal/core"
	"stock-pos/internal/devseed"
)

type appService struct {
	products core.ProductService
	sales    core.SaleService
	reports  core.ReportingService
	users    core.UserService
	seeder   *devseed.Seeder
	now      func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// seeder may be nil, in which case the development operations fail.
func NewAppService(
	products core.ProductService,
	sales core.SaleService,
	reports core.ReportingService,
	users core.UserService,
	seeder *devseed.Seeder,
) ApplicationService {
	return &appService{
		products: products,
		sales:    sales,
		reports:  reports,
		users:    users,
		seeder:   seeder,
		now:      time.Now,
	}
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int64) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

func (s *appService) ResolveActor(ctx context.Context, username string) (core.Actor, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return core.Actor{}, err
	}
	return u.Actor(), nil
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetProduct(ctx context.Context, id int64) (*ProductResult, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error) {
	p, err := s.products.CreateProduct(ctx, core.CreateProductInput{
		Name:         req.Name,
		UnitPrice:    req.UnitPrice,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) UpdateProduct(ctx context.Context, req UpdateProductRequest) (*ProductResult, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	p, err := s.products.UpdateProduct(ctx, core.UpdateProductInput{
		ID:           req.ID,
		Name:         req.Name,
		UnitPrice:    req.UnitPrice,
		MinimumStock: req.MinimumStock,
		DeltaStock:   req.DeltaStock,
		Description:  req.Description,
		Reason:       req.Reason,
		Date:         date,
		Actor:        req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) Restock(ctx context.Context, req RestockRequest) (*ProductResult, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Restock(ctx, core.RestockInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Date:      date,
		Actor:     req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) DeleteProduct(ctx context.Context, id int64, force bool) error {
	return s.products.DeleteProduct(ctx, id, force)
}

func (s *appService) ListLowStock(ctx context.Context) (*LowStockResult, error) {
	items, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &LowStockResult{Items: items, Count: len(items)}, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	sale, err := s.sales.CreateSale(ctx, core.CreateSaleInput{
		Date:      date,
		BuyerName: req.BuyerName,
		Items:     req.Items,
		Actor:     req.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetSale(ctx context.Context, id int64) (*SaleResult, error) {
	sale, err := s.sales.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, limit int) (*SaleListResult, error) {
	sales, err := s.sales.ListSales(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) ListMovements(ctx context.Context, req ListMovementsRequest) (*MovementListResult, error) {
	from, err := core.ParseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := core.ParseDate(req.To)
	if err != nil {
		return nil, err
	}
	movements, err := s.reports.ListMovements(ctx, core.MovementFilter{
		ProductID: req.ProductID,
		From:      from,
		To:        to,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &MovementListResult{Movements: movements}, nil
}

func (s *appService) DashboardSummary(ctx context.Context) (*core.DashboardSummary, error) {
	return s.reports.DashboardSummary(ctx, s.now())
}

// ── Development ───────────────────────────────────────────────────────────────

func (s *appService) ResetData(ctx context.Context) error {
	if s.seeder == nil {
		return fmt.Errorf("development seeding is not enabled")
	}
	return s.seeder.ResetData(ctx)
}

func (s *appService) SeedUsers(ctx context.Context) (*UserListResult, error) {
	if s.seeder == nil {
		return nil, fmt.Errorf("development seeding is not enabled")
	}
	users, err := s.seeder.SeedUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := &UserListResult{}
	for _, u := range users {
		out.Users = append(out.Users, UserResult{UserID: u.ID, Username: u.Username, Role: u.Role})
	}
	return out, nil
}

func (s *appService) SeedDemo(ctx context.Context, username string) (*DemoResult, error) {
	if s.seeder == nil {
		return nil, fmt.Errorf("development seeding is not enabled")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("demo data needs an existing user: %w", err)
	}
	res, err := s.seeder.SeedDemo(ctx, u.Actor(), s.now())
	if err != nil {
		return nil, err
	}
	return &DemoResult{
		Products: res.Products,
		Sales:    res.Sales,
		Lines:    res.Lines,
		Restocks: res.Restocks,
		Months:   res.Months,
		LowStock: res.LowStock,
	}, nil
}

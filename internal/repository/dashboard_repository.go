package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

// DashboardRepository serves the read side of the REST API.
type DashboardRepository interface {
	Inventory(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryRow, error)
	InventoryWithRotation(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryDays, error)
	Classification(ctx context.Context, filter domain.DashboardFilter) ([]domain.ClassificationView, error)
	CurrentAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.StockAlert, error)
}

type dashboardRepository struct {
	db *sqlstore.DB
}

func NewDashboardRepository(db *sqlstore.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Inventory(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryRow, error) {
	query := `SELECT sku, warehouse, product_name, stock FROM inventory WHERE 1=1`
	clause, args := buildDashboardFilterClause(filter, filterColumns{
		Warehouse: "warehouse",
		SKU:       "sku",
		Search:    []string{"sku", "product_name"},
	})
	query, args = paginate(query+clause+" ORDER BY warehouse, sku", args, filter)

	var rows []domain.InventoryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting inventory: %w", err)
	}
	return rows, nil
}

// InventoryWithRotation joins inventory with rotations and classification.
// Missing rotation reads as zero and missing class as NULL.
func (r *dashboardRepository) InventoryWithRotation(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryDays, error) {
	query := `
		SELECT i.sku, i.warehouse, i.product_name, i.stock,
		       COALESCE(r.rot30, 0) AS rot30,
		       COALESCE(r.rot60, 0) AS rot60,
		       COALESCE(r.rot90, 0) AS rot90,
		       c.class AS class
		FROM inventory i
		LEFT JOIN rotations r ON r.sku = i.sku AND r.warehouse = i.warehouse
		LEFT JOIN classification c ON c.sku = i.sku AND c.warehouse = i.warehouse
		WHERE 1=1`

	clause, args := buildDashboardFilterClause(filter, filterColumns{
		Warehouse: "i.warehouse",
		SKU:       "i.sku",
		Class:     "c.class",
		Search:    []string{"i.sku", "i.product_name"},
	})
	query, args = paginate(query+clause+" ORDER BY i.warehouse, i.sku", args, filter)

	var rows []domain.InventoryDays
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting inventory days: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) Classification(ctx context.Context, filter domain.DashboardFilter) ([]domain.ClassificationView, error) {
	query := `
		SELECT c.sku, c.warehouse, c.rot90, c.class,
		       COALESCE(i.product_name, '') AS product_name
		FROM classification c
		LEFT JOIN inventory i ON i.sku = c.sku AND i.warehouse = c.warehouse
		WHERE 1=1`

	clause, args := buildDashboardFilterClause(filter, filterColumns{
		Warehouse: "c.warehouse",
		SKU:       "c.sku",
		Class:     "c.class",
		Search:    []string{"c.sku", "i.product_name"},
	})
	query, args = paginate(query+clause+" ORDER BY c.warehouse, c.class, c.rot90 DESC, c.sku", args, filter)

	var rows []domain.ClassificationView
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting classification: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) CurrentAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.StockAlert, error) {
	query := `
		SELECT id, sku, warehouse, product_name, stock, rot30, rot60, rot90,
		       status, is_current, created_at
		FROM stock_alerts
		WHERE is_current = ?`

	clause, args := buildDashboardFilterClause(filter, filterColumns{
		Warehouse: "warehouse",
		SKU:       "sku",
		Status:    "status",
		Search:    []string{"sku", "product_name"},
	})
	args = append([]any{true}, args...)
	query, args = paginate(query+clause+" ORDER BY warehouse, status, sku", args, filter)

	var rows []domain.StockAlert
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting stock alerts: %w", err)
	}
	return rows, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

var (
	inventoryColumns      = []string{"sku", "warehouse", "product_name", "stock"}
	rotationColumns       = []string{"sku", "warehouse", "rot30", "rot60", "rot90"}
	classificationColumns = []string{"sku", "warehouse", "rot90", "class"}
	alertColumns          = []string{"sku", "warehouse", "product_name", "stock", "rot30", "rot60", "rot90", "status", "is_current", "created_at"}
	suggestionColumns     = []string{"sku", "warehouse", "product_name", "stock", "rot30", "rot90", "class", "target_days", "suggested_qty", "status"}
)

// StockRepository stores the inventory snapshot and everything derived from
// it. Replace* methods swap the whole table in one transaction.
type StockRepository interface {
	ReplaceInventory(ctx context.Context, rows []domain.InventoryRow) (int, error)
	ListInventory(ctx context.Context) ([]domain.InventoryRow, error)
	ReplaceRotations(ctx context.Context, rows []domain.RotationRecord) (int, error)
	ListRotations(ctx context.Context) ([]domain.RotationRecord, error)
	ReplaceClassification(ctx context.Context, rows []domain.ClassificationRecord) (int, error)
	ListClassification(ctx context.Context) ([]domain.ClassificationRecord, error)
	SaveAlerts(ctx context.Context, rows []domain.StatusRecord, at time.Time) (int, error)
	ReplaceSuggestions(ctx context.Context, rows []domain.SuggestionRecord) (int, error)
	ListSuggestions(ctx context.Context, filter domain.DashboardFilter) ([]domain.SuggestionRecord, error)
}

type stockRepository struct {
	db *sqlstore.DB
}

func NewStockRepository(db *sqlstore.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) ReplaceInventory(ctx context.Context, rows []domain.InventoryRow) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row.SKU, row.Warehouse, row.ProductName, row.Stock}
	}
	n, err := r.db.ReplaceAll(ctx, "inventory", inventoryColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing inventory: %w", err)
	}
	return n, nil
}

func (r *stockRepository) ListInventory(ctx context.Context) ([]domain.InventoryRow, error) {
	var rows []domain.InventoryRow
	query := `SELECT sku, warehouse, product_name, stock FROM inventory ORDER BY warehouse, sku`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing inventory: %w", err)
	}
	return rows, nil
}

func (r *stockRepository) ReplaceRotations(ctx context.Context, rows []domain.RotationRecord) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row.SKU, row.Warehouse, row.Rot30, row.Rot60, row.Rot90}
	}
	n, err := r.db.ReplaceAll(ctx, "rotations", rotationColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing rotations: %w", err)
	}
	return n, nil
}

func (r *stockRepository) ListRotations(ctx context.Context) ([]domain.RotationRecord, error) {
	var rows []domain.RotationRecord
	query := `SELECT sku, warehouse, rot30, rot60, rot90 FROM rotations`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing rotations: %w", err)
	}
	return rows, nil
}

func (r *stockRepository) ReplaceClassification(ctx context.Context, rows []domain.ClassificationRecord) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row.SKU, row.Warehouse, row.Rot90, string(row.Class)}
	}
	n, err := r.db.ReplaceAll(ctx, "classification", classificationColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing classification: %w", err)
	}
	return n, nil
}

func (r *stockRepository) ListClassification(ctx context.Context) ([]domain.ClassificationRecord, error) {
	var rows []domain.ClassificationRecord
	query := `SELECT sku, warehouse, rot90, class FROM classification`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing classification: %w", err)
	}
	return rows, nil
}

// SaveAlerts flags every current alert as history and inserts rows as the
// new current set.
func (r *stockRepository) SaveAlerts(ctx context.Context, rows []domain.StatusRecord, at time.Time) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row.SKU, row.Warehouse, row.ProductName, row.Stock, row.Rot30, row.Rot60, row.Rot90, string(row.Status), true, at}
	}

	var written int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := r.db.Rebind(`UPDATE stock_alerts SET is_current = ? WHERE is_current = ?`)
		if _, err := tx.ExecContext(ctx, query, false, true); err != nil {
			return fmt.Errorf("error retiring stock alerts: %w", err)
		}
		n, err := r.db.InsertBatches(ctx, tx, "stock_alerts", alertColumns, values)
		if err != nil {
			return fmt.Errorf("error inserting stock alerts: %w", err)
		}
		written = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *stockRepository) ReplaceSuggestions(ctx context.Context, rows []domain.SuggestionRecord) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{row.SKU, row.Warehouse, row.ProductName, row.Stock, row.Rot30, row.Rot90, string(row.Class), row.TargetDays, row.SuggestedQty, string(row.Status)}
	}
	n, err := r.db.ReplaceAll(ctx, "suggestions", suggestionColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing suggestions: %w", err)
	}
	return n, nil
}

// ListSuggestions returns suggestions ordered by warehouse and descending
// quantity. A zero PageSize returns every row.
func (r *stockRepository) ListSuggestions(ctx context.Context, filter domain.DashboardFilter) ([]domain.SuggestionRecord, error) {
	query := `
		SELECT sku, warehouse, product_name, stock, rot30, rot90, class,
		       target_days, suggested_qty, status
		FROM suggestions
		WHERE 1=1`

	clause, args := buildDashboardFilterClause(filter, filterColumns{
		Warehouse: "warehouse",
		SKU:       "sku",
		Class:     "class",
		Status:    "status",
		Search:    []string{"sku", "product_name"},
	})
	query += clause + " ORDER BY warehouse, suggested_qty DESC, sku"
	if filter.PageSize > 0 {
		query, args = paginate(query, args, filter)
	}

	var rows []domain.SuggestionRecord
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error listing suggestions: %w", err)
	}
	return rows, nil
}

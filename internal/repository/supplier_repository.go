package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

var (
	catalogColumns = []string{
		"sku", "description", "barcode", "vendor", "list_price", "real_price", "previous_real_price",
		"bonus", "available", "previous_available", "max_per_order", "updated_at",
	}
	catalogUpdateColumns = catalogColumns[1:]
	supplierAlertColumns = []string{
		"sku", "description", "available", "previous_available", "real_price", "previous_real_price",
		"inventory_state", "price_state", "kind", "sent", "created_at",
	}
)

// SupplierRepository stores the supplier portal catalog and the alerts
// raised by its changes.
type SupplierRepository interface {
	Snapshot(ctx context.Context) (map[string]domain.SupplierProduct, error)
	SaveCatalog(ctx context.Context, products []domain.SupplierProduct, alerts []domain.SupplierAlert) (int, error)
	ListCatalog(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierProduct, error)
	ListAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierAlert, error)
	Unsent(ctx context.Context, limit int) ([]domain.SupplierAlert, error)
	MarkSent(ctx context.Context, ids []int64) error
}

type supplierRepository struct {
	db *sqlstore.DB
}

func NewSupplierRepository(db *sqlstore.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

// Snapshot returns the stored catalog keyed by SKU.
func (r *supplierRepository) Snapshot(ctx context.Context) (map[string]domain.SupplierProduct, error) {
	var rows []domain.SupplierProduct
	query := `SELECT ` + joinColumns(catalogColumns) + ` FROM supplier_catalog`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error reading supplier catalog: %w", err)
	}

	out := make(map[string]domain.SupplierProduct, len(rows))
	for _, p := range rows {
		out[p.SKU] = p
	}
	return out, nil
}

// SaveCatalog upserts products and inserts alerts in one transaction.
// products must not repeat a SKU.
func (r *supplierRepository) SaveCatalog(ctx context.Context, products []domain.SupplierProduct, alerts []domain.SupplierAlert) (int, error) {
	productValues := make([][]any, len(products))
	for i, p := range products {
		productValues[i] = []any{
			p.SKU, p.Description, p.Barcode, p.Vendor, p.ListPrice, p.RealPrice, p.PreviousRealPrice,
			p.Bonus, p.Available, p.PreviousAvailable, p.MaxPerOrder, p.UpdatedAt,
		}
	}
	alertValues := make([][]any, len(alerts))
	for i, a := range alerts {
		alertValues[i] = []any{
			a.SKU, a.Description, a.Available, a.PreviousAvailable, a.RealPrice, a.PreviousRealPrice,
			a.InventoryState, a.PriceState, string(a.Kind), a.Sent, a.CreatedAt,
		}
	}

	var written int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := r.db.UpsertBatches(ctx, tx, "supplier_catalog", catalogColumns, []string{"sku"}, catalogUpdateColumns, productValues)
		if err != nil {
			return fmt.Errorf("error upserting supplier catalog: %w", err)
		}
		written = n
		if _, err := r.db.InsertBatches(ctx, tx, "supplier_alerts", supplierAlertColumns, alertValues); err != nil {
			return fmt.Errorf("error inserting supplier alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *supplierRepository) ListCatalog(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierProduct, error) {
	query := `SELECT ` + joinColumns(catalogColumns) + ` FROM supplier_catalog WHERE 1=1`
	clause, args := buildDashboardFilterClause(filter, filterColumns{
		SKU:    "sku",
		Search: []string{"sku", "description", "vendor", "barcode"},
	})
	query, args = paginate(query+clause+" ORDER BY description, sku", args, filter)

	var rows []domain.SupplierProduct
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error listing supplier catalog: %w", err)
	}
	return rows, nil
}

func (r *supplierRepository) ListAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierAlert, error) {
	query := `SELECT id, ` + joinColumns(supplierAlertColumns) + ` FROM supplier_alerts WHERE 1=1`
	clause, args := buildDashboardFilterClause(filter, filterColumns{
		SKU:    "sku",
		Status: "kind",
		Search: []string{"sku", "description"},
	})
	query, args = paginate(query+clause+" ORDER BY created_at DESC, id DESC", args, filter)

	var rows []domain.SupplierAlert
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error listing supplier alerts: %w", err)
	}
	return rows, nil
}

// Unsent returns up to limit alerts not yet mailed, oldest first.
func (r *supplierRepository) Unsent(ctx context.Context, limit int) ([]domain.SupplierAlert, error) {
	if limit <= 0 {
		limit = 10000
	}
	query := r.db.Rebind(`SELECT id, ` + joinColumns(supplierAlertColumns) + `
		FROM supplier_alerts WHERE sent = ? ORDER BY created_at, id LIMIT ?`)

	var rows []domain.SupplierAlert
	if err := r.db.SelectContext(ctx, &rows, query, false, limit); err != nil {
		return nil, fmt.Errorf("error listing unsent supplier alerts: %w", err)
	}
	return rows, nil
}

func (r *supplierRepository) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for start := 0; start < len(ids); start += r.db.BatchSize() {
			end := start + r.db.BatchSize()
			if end > len(ids) {
				end = len(ids)
			}
			query, args, err := sqlx.In(`UPDATE supplier_alerts SET sent = ? WHERE id IN (?)`, true, ids[start:end])
			if err != nil {
				return fmt.Errorf("error building mark sent query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("error marking supplier alerts sent: %w", err)
			}
		}
		return nil
	})
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

var (
	productColumns     = []string{"sku", "name", "vendor", "line"}
	priceColumns       = []string{"sku", "list", "unit", "price"}
	clientColumns      = []string{"tax_id", "name", "phone", "address", "email", "updated_at"}
	saleDetailColumns  = []string{"invoice", "client_id", "sku", "cost_center", "quantity", "total", "net_total", "seller", "sold_on", "kind"}
	invoiceLineColumns = []string{
		"invoice", "is_return", "physician_code", "physician_name", "quantity", "value",
		"point_of_sale", "register", "client_tax_id", "client_name", "seller_code", "seller_name",
		"sku", "description", "unit", "lab_code", "lab", "payment_method", "email", "phone",
		"issued_at", "invoice_date",
	}
)

// MasterDataRepository stores the ERP master data: products, prices,
// clients and the raw sales tables.
type MasterDataRepository interface {
	ReplaceProducts(ctx context.Context, rows []domain.Product) (int, error)
	ReplacePrices(ctx context.Context, rows []domain.Price) (int, error)
	UpsertClients(ctx context.Context, rows []domain.Client) (int, error)
	FindClient(ctx context.Context, taxID string) (*domain.Client, error)
	ReplaceSalesDetail(ctx context.Context, rows []domain.SaleDetail) (int, error)
	AppendInvoiceLines(ctx context.Context, rows []domain.InvoiceLine) (int, error)
}

type masterDataRepository struct {
	db *sqlstore.DB
}

func NewMasterDataRepository(db *sqlstore.DB) MasterDataRepository {
	return &masterDataRepository{db: db}
}

func (r *masterDataRepository) ReplaceProducts(ctx context.Context, rows []domain.Product) (int, error) {
	values := make([][]any, len(rows))
	for i, p := range rows {
		values[i] = []any{p.SKU, p.Name, p.Vendor, p.Line}
	}
	n, err := r.db.ReplaceAll(ctx, "products", productColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing products: %w", err)
	}
	return n, nil
}

func (r *masterDataRepository) ReplacePrices(ctx context.Context, rows []domain.Price) (int, error) {
	values := make([][]any, len(rows))
	for i, p := range rows {
		values[i] = []any{p.SKU, p.List, p.Unit, p.Price}
	}
	n, err := r.db.ReplaceAll(ctx, "prices", priceColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing prices: %w", err)
	}
	return n, nil
}

// UpsertClients inserts new clients and refreshes known ones by tax id.
// rows must not repeat a tax id.
func (r *masterDataRepository) UpsertClients(ctx context.Context, rows []domain.Client) (int, error) {
	values := make([][]any, len(rows))
	for i, c := range rows {
		values[i] = []any{c.TaxID, c.Name, c.Phone, c.Address, c.Email, c.UpdatedAt}
	}

	var written int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := r.db.UpsertBatches(ctx, tx, "clients", clientColumns,
			[]string{"tax_id"}, []string{"name", "phone", "address", "email", "updated_at"}, values)
		written = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error upserting clients: %w", err)
	}
	return written, nil
}

func (r *masterDataRepository) FindClient(ctx context.Context, taxID string) (*domain.Client, error) {
	var c domain.Client
	query := r.db.Rebind(`SELECT tax_id, name, phone, address, email, updated_at FROM clients WHERE tax_id = ?`)
	if err := r.db.GetContext(ctx, &c, query, taxID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error finding client: %w", err)
	}
	return &c, nil
}

func (r *masterDataRepository) ReplaceSalesDetail(ctx context.Context, rows []domain.SaleDetail) (int, error) {
	values := make([][]any, len(rows))
	for i, s := range rows {
		values[i] = []any{s.Invoice, s.ClientID, s.SKU, s.CostCenter, s.Quantity, s.Total, s.NetTotal, s.Seller, s.SoldOn, s.Kind}
	}
	n, err := r.db.ReplaceAll(ctx, "sales_detail", saleDetailColumns, values)
	if err != nil {
		return 0, fmt.Errorf("error replacing sales detail: %w", err)
	}
	return n, nil
}

// AppendInvoiceLines inserts rows without touching existing ones.
func (r *masterDataRepository) AppendInvoiceLines(ctx context.Context, rows []domain.InvoiceLine) (int, error) {
	values := make([][]any, len(rows))
	for i, l := range rows {
		values[i] = []any{
			l.Invoice, l.IsReturn, l.PhysicianCode, l.PhysicianName, l.Quantity, l.Value,
			l.PointOfSale, l.Register, l.ClientTaxID, l.ClientName, l.SellerCode, l.SellerName,
			l.SKU, l.Description, l.Unit, l.LabCode, l.Lab, l.PaymentMethod, l.Email, l.Phone,
			l.IssuedAt, l.InvoiceDate,
		}
	}

	var written int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := r.db.InsertBatches(ctx, tx, "invoice_lines", invoiceLineColumns, values)
		written = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error appending invoice lines: %w", err)
	}
	return written, nil
}

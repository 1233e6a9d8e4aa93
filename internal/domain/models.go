// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Key identifies a SKU inside one warehouse.
type Key struct {
	SKU       string
	Warehouse string
}

// SaleEvent is one ERP transaction line. Quantity is negative for returns.
type SaleEvent struct {
	SKU       string
	Warehouse string
	Quantity  float64
	Date      string // YYYYMMDD
}

// InventoryRow is the on-hand stock of a SKU in a warehouse.
type InventoryRow struct {
	SKU         string  `json:"sku" db:"sku"`
	Warehouse   string  `json:"warehouse" db:"warehouse"`
	ProductName string  `json:"product_name" db:"product_name"`
	Stock       float64 `json:"stock" db:"stock"`
}

// RotationRecord holds trailing 30/60/90 day sold quantities.
type RotationRecord struct {
	SKU       string  `json:"sku" db:"sku"`
	Warehouse string  `json:"warehouse" db:"warehouse"`
	Rot30     float64 `json:"rot30" db:"rot30"`
	Rot60     float64 `json:"rot60" db:"rot60"`
	Rot90     float64 `json:"rot90" db:"rot90"`
}

// Daily30 returns the average units sold per day over the last 30 days.
func (r RotationRecord) Daily30() float64 { return r.Rot30 / 30 }

// Daily60 returns the average units sold per day over the last 60 days.
func (r RotationRecord) Daily60() float64 { return r.Rot60 / 60 }

// Daily90 returns the average units sold per day over the last 90 days.
func (r RotationRecord) Daily90() float64 { return r.Rot90 / 90 }

// ClassificationRecord is the ABC class of a SKU within its warehouse.
type ClassificationRecord struct {
	SKU       string  `json:"sku" db:"sku"`
	Warehouse string  `json:"warehouse" db:"warehouse"`
	Rot90     float64 `json:"rotation90" db:"rot90"`
	Class     Class   `json:"class" db:"class"`
}

// StatusRecord is the evaluated stock status of a SKU.
type StatusRecord struct {
	SKU         string      `json:"sku" db:"sku"`
	Warehouse   string      `json:"warehouse" db:"warehouse"`
	ProductName string      `json:"product_name" db:"product_name"`
	Stock       float64     `json:"stock" db:"stock"`
	Rot30       float64     `json:"rot30" db:"rot30"`
	Rot60       float64     `json:"rot60" db:"rot60"`
	Rot90       float64     `json:"rot90" db:"rot90"`
	Status      StockStatus `json:"status" db:"status"`
}

// StockAlert is a persisted StatusRecord. Previous runs stay as history with
// IsCurrent=false.
type StockAlert struct {
	ID        int64     `json:"id" db:"id"`
	IsCurrent bool      `json:"is_current" db:"is_current"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	StatusRecord
}

// SuggestionRecord is a purchase suggestion. Only rows with SuggestedQty > 0
// are produced.
type SuggestionRecord struct {
	SKU          string      `json:"sku" db:"sku"`
	Warehouse    string      `json:"warehouse" db:"warehouse"`
	ProductName  string      `json:"product_name" db:"product_name"`
	Stock        float64     `json:"stock" db:"stock"`
	Rot30        float64     `json:"rot30" db:"rot30"`
	Rot90        float64     `json:"rot90" db:"rot90"`
	Class        Class       `json:"class" db:"class"`
	TargetDays   int         `json:"target_days" db:"target_days"`
	SuggestedQty int         `json:"suggested_qty" db:"suggested_qty"`
	Status       StockStatus `json:"status" db:"status"`
}

// Product is an item of the ERP product master.
type Product struct {
	SKU    string `json:"sku" db:"sku"`
	Name   string `json:"name" db:"name"`
	Vendor string `json:"vendor" db:"vendor"`
	Line   string `json:"line" db:"line"`
}

// Price is a SKU price in one ERP price list.
type Price struct {
	SKU   string          `json:"sku" db:"sku"`
	List  string          `json:"list" db:"list"`
	Unit  string          `json:"unit" db:"unit"`
	Price decimal.Decimal `json:"price" db:"price"`
}

// Client is an ERP customer, keyed by tax id.
type Client struct {
	TaxID     string    `json:"tax_id" db:"tax_id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone" db:"phone"`
	Address   *string   `json:"address" db:"address"`
	Email     *string   `json:"email" db:"email"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SaleDetail is a raw sale line kept for the dashboard.
type SaleDetail struct {
	Invoice    *string         `json:"invoice" db:"invoice"`
	ClientID   *string         `json:"client_id" db:"client_id"`
	SKU        string          `json:"sku" db:"sku"`
	CostCenter *string         `json:"cost_center" db:"cost_center"`
	Quantity   float64         `json:"quantity" db:"quantity"`
	Total      decimal.Decimal `json:"total" db:"total"`
	NetTotal   decimal.Decimal `json:"net_total" db:"net_total"`
	Seller     string          `json:"seller" db:"seller"`
	SoldOn     *time.Time      `json:"sold_on" db:"sold_on"`
	Kind       *string         `json:"kind" db:"kind"`
}

// InvoiceLine is one line of a point of sale invoice. Returns carry negative
// quantity and value.
type InvoiceLine struct {
	Invoice       string          `json:"invoice" db:"invoice"`
	IsReturn      bool            `json:"is_return" db:"is_return"`
	PhysicianCode int64           `json:"physician_code" db:"physician_code"`
	PhysicianName string          `json:"physician_name" db:"physician_name"`
	Quantity      float64         `json:"quantity" db:"quantity"`
	Value         decimal.Decimal `json:"value" db:"value"`
	PointOfSale   int64           `json:"point_of_sale" db:"point_of_sale"`
	Register      string          `json:"register" db:"register"`
	ClientTaxID   string          `json:"client_tax_id" db:"client_tax_id"`
	ClientName    string          `json:"client_name" db:"client_name"`
	SellerCode    int64           `json:"seller_code" db:"seller_code"`
	SellerName    string          `json:"seller_name" db:"seller_name"`
	SKU           string          `json:"sku" db:"sku"`
	Description   string          `json:"description" db:"description"`
	Unit          string          `json:"unit" db:"unit"`
	LabCode       int64           `json:"lab_code" db:"lab_code"`
	Lab           string          `json:"lab" db:"lab"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Email         string          `json:"email" db:"email"`
	Phone         string          `json:"phone" db:"phone"`
	IssuedAt      *time.Time      `json:"issued_at" db:"issued_at"`
	InvoiceDate   time.Time       `json:"invoice_date" db:"invoice_date"`
}

// SupplierProduct is an item of the supplier portal catalog. Previous price
// and availability are captured on every upsert.
type SupplierProduct struct {
	SKU               string          `json:"sku" db:"sku"`
	Description       string          `json:"description" db:"description"`
	Barcode           string          `json:"barcode" db:"barcode"`
	Vendor            string          `json:"vendor" db:"vendor"`
	ListPrice         decimal.Decimal `json:"list_price" db:"list_price"`
	RealPrice         decimal.Decimal `json:"real_price" db:"real_price"`
	PreviousRealPrice decimal.Decimal `json:"previous_real_price" db:"previous_real_price"`
	Bonus             float64         `json:"bonus" db:"bonus"`
	Available         float64         `json:"available" db:"available"`
	PreviousAvailable float64         `json:"previous_available" db:"previous_available"`
	MaxPerOrder       float64         `json:"max_per_order" db:"max_per_order"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// SupplierAlert records a change in availability and/or price of a supplier
// catalog item.
type SupplierAlert struct {
	ID                int64           `json:"id" db:"id"`
	SKU               string          `json:"sku" db:"sku"`
	Description       string          `json:"description" db:"description"`
	Available         float64         `json:"available" db:"available"`
	PreviousAvailable float64         `json:"previous_available" db:"previous_available"`
	RealPrice         decimal.Decimal `json:"real_price" db:"real_price"`
	PreviousRealPrice decimal.Decimal `json:"previous_real_price" db:"previous_real_price"`
	InventoryState    string          `json:"inventory_state" db:"inventory_state"`
	PriceState        string          `json:"price_state" db:"price_state"`
	Kind              AlertKind       `json:"kind" db:"kind"`
	Sent              bool            `json:"sent" db:"sent"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// User is a dashboard account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// JobRun is one recorded execution of a scheduled job.
type JobRun struct {
	ID           string     `json:"id" db:"id"`
	Job          string     `json:"job" db:"job"`
	Status       string     `json:"status" db:"status"`
	Rows         int        `json:"rows" db:"rows_written"`
	ErrorMessage *string    `json:"error,omitempty" db:"error_message"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

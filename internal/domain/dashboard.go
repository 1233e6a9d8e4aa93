package domain

// DashboardFilter narrows the read endpoints. Empty fields match everything.
type DashboardFilter struct {
	Warehouse string `form:"warehouse" json:"warehouse"`
	SKU       string `form:"sku" json:"sku"`
	Class     string `form:"class" json:"class" binding:"omitempty,oneof=A B C D a b c d"`
	Status    string `form:"status" json:"status"`
	Search    string `form:"q" json:"q"`
	Page      int    `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" json:"page_size" binding:"omitempty,min=1,max=5000"`
}

// Normalize applies paging defaults.
func (f *DashboardFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 100
	}
	if f.PageSize > 5000 {
		f.PageSize = 5000
	}
}

// Offset returns the row offset of the current page.
func (f DashboardFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// InventoryDays is a stock row joined with its rotation and the derived days
// of inventory. DaysOfInventory is nil when it cannot be computed.
type InventoryDays struct {
	SKU             string   `json:"sku" db:"sku"`
	Warehouse       string   `json:"warehouse" db:"warehouse"`
	ProductName     string   `json:"product_name" db:"product_name"`
	Stock           float64  `json:"stock" db:"stock"`
	Rot30           float64  `json:"rot30" db:"rot30"`
	Rot60           float64  `json:"rot60" db:"rot60"`
	Rot90           float64  `json:"rot90" db:"rot90"`
	Class           *string  `json:"class" db:"class"`
	DaysOfInventory *float64 `json:"days_of_inventory" db:"-"`
}

// ClassificationView is a classification row with its product name.
type ClassificationView struct {
	ClassificationRecord
	ProductName string `json:"product_name" db:"product_name"`
}

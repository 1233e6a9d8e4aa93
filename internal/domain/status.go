package domain

import "strings"

// Class is the ABC tier of a SKU.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
	ClassD Class = "D"
)

// StockStatus is the tag derived from stock and rotation. Values are stored
// and reported verbatim.
type StockStatus string

const (
	StatusOK         StockStatus = "OK"
	StatusOutOfStock StockStatus = "FALTANTE"
	StatusNoMovement StockStatus = "SIN MOVIMIENTO"
	StatusCritical   StockStatus = "CRÍTICO"
	StatusLowStock   StockStatus = "BAJO STOCK"
	StatusOverstock  StockStatus = "SOBRESTOCK"
)

// IsAlert reports whether the status is persisted as a stock alert.
func (s StockStatus) IsAlert() bool {
	switch s {
	case StatusOutOfStock, StatusCritical, StatusLowStock:
		return true
	}
	return false
}

// AlertKind says which fields of a supplier item changed.
type AlertKind string

const (
	AlertInventory AlertKind = "INVENTARIO"
	AlertPrice     AlertKind = "PRECIO"
	AlertBoth      AlertKind = "AMBOS"
)

// Supplier availability and price transitions.
const (
	InventorySoldOut   = "AGOTADO"
	InventoryAvailable = "DISPONIBLE"
	PriceUp            = "SUBE"
	PriceDown          = "BAJA"
)

var classes = map[string]Class{
	"a": ClassA,
	"b": ClassB,
	"c": ClassC,
	"d": ClassD,
}

// ParseClass returns the class for a label (case-insensitive).
func ParseClass(label string) (Class, bool) {
	class, ok := classes[strings.ToLower(strings.TrimSpace(label))]

	return class, ok
}

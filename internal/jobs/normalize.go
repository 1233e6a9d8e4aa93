package jobs

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/erp"
	"github.com/andresuchdata/erpsync/internal/pipeline/stock"
)

const unknownPhysician = "SIN DEFINIR"

var validate = validator.New()

var issuedAtLayouts = []string{
	"20060102 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// inventoryRows converts the inventory of every warehouse. Rows without SKU
// are dropped and a repeated (SKU, warehouse) keeps its first row.
func inventoryRows(perWarehouse map[string][]erp.InventoryItem, order []string) []domain.InventoryRow {
	seen := make(map[domain.Key]struct{})
	var out []domain.InventoryRow
	for _, wh := range order {
		for _, item := range perWarehouse[wh] {
			sku := item.SKU.String()
			if sku == "" {
				continue
			}
			warehouse := item.Warehouse.String()
			if warehouse == "" {
				warehouse = wh
			}
			key := domain.Key{SKU: sku, Warehouse: warehouse}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.InventoryRow{
				SKU:         sku,
				Warehouse:   warehouse,
				ProductName: item.Name.String(),
				Stock:       item.Stock.Float(),
			})
		}
	}
	return out
}

func saleEvents(items []erp.SaleItem) []domain.SaleEvent {
	out := make([]domain.SaleEvent, 0, len(items))
	for _, item := range items {
		if item.SKU == "" {
			continue
		}
		out = append(out, domain.SaleEvent{
			SKU:       item.SKU.String(),
			Warehouse: item.Warehouse.String(),
			Quantity:  item.Quantity.Float(),
			Date:      item.Date.String(),
		})
	}
	return out
}

func products(items []erp.ProductItem) []domain.Product {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.Product, 0, len(items))
	for _, item := range items {
		sku := item.SKU.String()
		if sku == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, domain.Product{
			SKU:    sku,
			Name:   item.Name.String(),
			Vendor: item.Vendor.String(),
			Line:   item.Line.String(),
		})
	}
	return out
}

func prices(items []erp.PriceItem, list string) []domain.Price {
	type key struct{ sku, unit string }
	seen := make(map[key]struct{}, len(items))
	out := make([]domain.Price, 0, len(items))
	for _, item := range items {
		k := key{item.SKU.String(), item.Unit.String()}
		if k.sku == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Price{
			SKU:   k.sku,
			List:  list,
			Unit:  k.unit,
			Price: decimal.NewFromFloat(item.Price.Float()),
		})
	}
	return out
}

// clients drops rows without tax id or name. Empty optional fields and
// malformed emails become NULL. A repeated tax id keeps its last row.
func clients(items []erp.ClientItem, now time.Time) []domain.Client {
	index := make(map[string]int, len(items))
	out := make([]domain.Client, 0, len(items))
	for _, item := range items {
		taxID, name := item.TaxID.String(), item.Name.String()
		if taxID == "" || name == "" {
			continue
		}

		c := domain.Client{
			TaxID:     taxID,
			Name:      name,
			Phone:     optional(item.Phone.String()),
			Address:   optional(item.Address.String()),
			Email:     optional(item.Email.String()),
			UpdatedAt: now,
		}
		if c.Email != nil && validate.Var(*c.Email, "email") != nil {
			c.Email = nil
		}

		if i, dup := index[taxID]; dup {
			out[i] = c
			continue
		}
		index[taxID] = len(out)
		out = append(out, c)
	}
	return out
}

func saleDetails(items []erp.SaleItem, loc *time.Location) []domain.SaleDetail {
	out := make([]domain.SaleDetail, 0, len(items))
	for _, item := range items {
		sku := item.SKU.String()
		if sku == "" {
			continue
		}

		invoice := item.DocType.String()
		if n := item.Number.String(); n != "" {
			invoice += "-" + n
		}

		row := domain.SaleDetail{
			Invoice:    optional(invoice),
			ClientID:   optional(item.ClientID.String()),
			SKU:        sku,
			CostCenter: optional(item.CostCenter.String()),
			Quantity:   item.Quantity.Float(),
			Total:      decimal.NewFromFloat(item.Total.Float()),
			NetTotal:   decimal.NewFromFloat(item.NetTotal.Float()),
			Seller:     item.Seller.String(),
			Kind:       optional(item.Kind.String()),
		}
		if d, ok := stock.ParseDate(item.Date.String(), loc); ok {
			row.SoldOn = &d
		}
		out = append(out, row)
	}
	return out
}

// invoiceLines keeps lines with a point of sale and a valid date. Documents
// starting with D are returns and carry negative quantity and value.
func invoiceLines(items []erp.InvoiceLineItem, loc *time.Location) []domain.InvoiceLine {
	out := make([]domain.InvoiceLine, 0, len(items))
	for _, item := range items {
		pos := digits(item.PointOfSale.String())
		date, ok := invoiceDate(item.Date.String(), loc)
		if pos == 0 || !ok {
			continue
		}

		invoice := strings.TrimSpace(item.Document.String() + item.Number.String())
		isReturn := strings.HasPrefix(strings.ToUpper(invoice), "D")

		physicianCode, physicianName := int64(0), unknownPhysician
		if onlyDigits(item.Physician.String()) {
			physicianCode = digits(item.Physician.String())
			if name := item.PhysicianName.String(); name != "" {
				physicianName = name
			}
		}

		quantity := float64(digits(item.Quantity.String()))
		value := decimal.NewFromInt(digits(item.Value.String()))
		if isReturn {
			quantity = -quantity
			value = value.Neg()
		}

		out = append(out, domain.InvoiceLine{
			Invoice:       invoice,
			IsReturn:      isReturn,
			PhysicianCode: physicianCode,
			PhysicianName: physicianName,
			Quantity:      quantity,
			Value:         value,
			PointOfSale:   pos,
			Register:      strconv.FormatInt(digits(item.Register.String()), 10),
			ClientTaxID:   strconv.FormatInt(digits(item.ClientTaxID.String()), 10),
			ClientName:    item.ClientName.String(),
			SellerCode:    digits(item.Seller.String()),
			SellerName:    item.SellerName.String(),
			SKU:           item.SKU.String(),
			Description:   item.Description.String(),
			Unit:          item.Unit.String(),
			LabCode:       digits(item.LabCode.String()),
			Lab:           item.Lab.String(),
			PaymentMethod: item.PaymentMethod.String(),
			Email:         item.Email.String(),
			Phone:         item.Phone.String(),
			IssuedAt:      issuedAt(item.IssuedAt.String(), loc),
			InvoiceDate:   date,
		})
	}
	return out
}

// dedupeCatalog keeps the first row of every SKU.
func dedupeCatalog(rows []domain.SupplierProduct) []domain.SupplierProduct {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.SupplierProduct, 0, len(rows))
	for _, p := range rows {
		if _, dup := seen[p.SKU]; dup {
			continue
		}
		seen[p.SKU] = struct{}{}
		out = append(out, p)
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// digits reads the decimal digits of s as an integer, ignoring every other
// character. No digits reads as 0.
func digits(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func onlyDigits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invoiceDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func issuedAt(raw string, loc *time.Location) *time.Time {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return nil
	}
	for _, layout := range issuedAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	return nil
}

package erp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number decodes a JSON number or numeric string. Anything else is 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	text := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			*n = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		v = 0
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// Text decodes a JSON string or a bare scalar as trimmed text. null is "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	*t = Text(strings.TrimSpace(string(b)))
	return nil
}

func (t Text) String() string { return string(t) }

// InventoryItem is a row of the inventory service.
type InventoryItem struct {
	SKU       Text   `json:"sku"`
	Warehouse Text   `json:"bod"`
	Name      Text   `json:"nombre"`
	Stock     Number `json:"stock"`
	UpdatedAt Text   `json:"upd"`
}

// SaleItem is a row of the sales service.
type SaleItem struct {
	SKU        Text   `json:"sku"`
	Warehouse  Text   `json:"bod"`
	Quantity   Number `json:"cant"`
	Date       Text   `json:"fec"`
	DocType    Text   `json:"tp"`
	Number     Text   `json:"numero"`
	ClientID   Text   `json:"fk_cliente"`
	CostCenter Text   `json:"cco"`
	Total      Number `json:"vtatotal"`
	NetTotal   Number `json:"vtasiniva"`
	Seller     Text   `json:"ven"`
	Kind       Text   `json:"tipo"`
}

// ProductItem is a row of the product master service.
type ProductItem struct {
	SKU    Text `json:"sku"`
	Name   Text `json:"nombre"`
	Vendor Text `json:"proveedor"`
	Line   Text `json:"linea"`
}

// PriceItem is a row of the price list service.
type PriceItem struct {
	SKU   Text   `json:"sku"`
	Unit  Text   `json:"umd"`
	Price Number `json:"precio"`
}

// ClientItem is a row of the clients service.
type ClientItem struct {
	TaxID   Text `json:"ccnit"`
	Name    Text `json:"nombre"`
	Phone   Text `json:"telf1"`
	Address Text `json:"direccion"`
	Email   Text `json:"email"`
}

// InvoiceLineItem is a row of the point of sale invoice service.
type InvoiceLineItem struct {
	Document      Text `json:"documento"`
	Number        Text `json:"numero"`
	Physician     Text `json:"medico"`
	PhysicianName Text `json:"mednom"`
	Quantity      Text `json:"cant1"`
	Value         Text `json:"valor"`
	PointOfSale   Text `json:"codpunto"`
	Register      Text `json:"caja"`
	ClientTaxID   Text `json:"ccnit"`
	ClientName    Text `json:"cliente"`
	Seller        Text `json:"ven"`
	SellerName    Text `json:"vennom"`
	SKU           Text `json:"sku"`
	Description   Text `json:"descripcion"`
	Unit          Text `json:"und1"`
	IssuedAt      Text `json:"fechora"`
	LabCode       Text `json:"codlab"`
	Lab           Text `json:"laboratorio"`
	PaymentMethod Text `json:"fpago"`
	Email         Text `json:"email"`
	Phone         Text `json:"telefono"`
	Date          Text `json:"fecha"`
}

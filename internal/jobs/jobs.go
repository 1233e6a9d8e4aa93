// Package jobs holds the scheduled ETL jobs. Every job does one fetch, one
// in-memory transform and one write, and reports the rows it wrote.
package jobs

import (
	"context"
	"time"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/erp"
	"github.com/andresuchdata/erpsync/internal/mail"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/repository"
	"github.com/andresuchdata/erpsync/internal/storage"
)

// Job names, also used as schedule keys.
const (
	InventorySync     = "inventory_sync"
	ProductsSync      = "products_sync"
	PricesSync        = "prices_sync"
	ClientsSync       = "clients_sync"
	SalesSync         = "sales_sync"
	SalesDetailSync   = "sales_detail_sync"
	InvoiceLinesSync  = "invoice_lines_sync"
	Classification    = "classification"
	StockAlerts       = "stock_alerts"
	Suggestions       = "suggestions"
	SupplierSync      = "supplier_sync"
	SupplierAlertMail = "supplier_alert_mail"
	SuggestionsExport = "suggestions_export"
)

// ERPSource is the part of the ERP client the jobs read from.
type ERPSource interface {
	Inventory(ctx context.Context, warehouse string) ([]erp.InventoryItem, error)
	Sales(ctx context.Context, r erp.DateRange) ([]erp.SaleItem, error)
	Products(ctx context.Context) ([]erp.ProductItem, error)
	Prices(ctx context.Context, list string) ([]erp.PriceItem, error)
	Clients(ctx context.Context, cutoff time.Time) ([]erp.ClientItem, error)
	InvoiceLines(ctx context.Context, day time.Time) ([]erp.InvoiceLineItem, error)
}

// CatalogSource is the supplier portal scraper.
type CatalogSource interface {
	Catalog(ctx context.Context) ([]domain.SupplierProduct, error)
}

// Options are the job settings taken from configuration.
type Options struct {
	Warehouses   []string
	PriceList    string
	MailSubject  string
	MailMaxRows  int
	MailBatch    int
	ExportPrefix string
	Location     *time.Location
}

// OptionsFromConfig collects the job settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Warehouses:   cfg.ERP.Warehouses,
		PriceList:    cfg.ERP.PriceList,
		MailSubject:  cfg.Mail.Subject,
		MailMaxRows:  cfg.Mail.MaxRows,
		MailBatch:    cfg.Mail.BatchLimit,
		ExportPrefix: "suggestions",
		Location:     cfg.Schedule.Location(),
	}
}

// Deps wires the jobs to their sources and sinks.
type Deps struct {
	ERP       ERPSource
	Supplier  CatalogSource
	Stock     repository.StockRepository
	Master    repository.MasterDataRepository
	Suppliers repository.SupplierRepository
	Mailer    mail.Sender
	Storage   storage.ObjectStorage
	Options   Options

	now func() time.Time
}

func (d *Deps) clock() time.Time {
	loc := d.Options.Location
	if loc == nil {
		loc = time.UTC
	}
	if d.now != nil {
		return d.now().In(loc)
	}
	return time.Now().In(loc)
}

type job struct {
	name string
	run  func(ctx context.Context) (pipeline.Result, error)
}

func (j job) Name() string { return j.name }

func (j job) Run(ctx context.Context) (pipeline.Result, error) { return j.run(ctx) }

// All returns every job. Jobs whose source is not configured are left out.
func (d *Deps) All() []pipeline.Job {
	var out []pipeline.Job
	if d.ERP != nil {
		out = append(out,
			d.InventorySync(),
			d.ProductsSync(),
			d.PricesSync(),
			d.ClientsSync(),
			d.SalesSync(),
			d.SalesDetailSync(),
			d.InvoiceLinesSync(),
		)
	}
	out = append(out, d.Classification(), d.StockAlerts(), d.Suggestions())
	if d.Supplier != nil {
		out = append(out, d.SupplierSync())
	}
	if d.Mailer != nil {
		out = append(out, d.SupplierAlertMail())
	}
	if d.Storage != nil {
		out = append(out, d.SuggestionsExport())
	}
	return out
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/erp"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/pipeline/stock"
)

const (
	clientCutoffMargin = 6 * time.Minute
	salesDetailDays    = 30
)

// InventorySync replaces the inventory table with the stock of every
// configured warehouse. One failing warehouse aborts the run.
func (d *Deps) InventorySync() pipeline.Job {
	return job{name: InventorySync, run: func(ctx context.Context) (pipeline.Result, error) {
		perWarehouse := make(map[string][]erp.InventoryItem, len(d.Options.Warehouses))
		for _, wh := range d.Options.Warehouses {
			items, err := d.ERP.Inventory(ctx, wh)
			if err != nil {
				return pipeline.Result{}, fmt.Errorf("error fetching inventory of %s: %w", wh, err)
			}
			log.Debug().Str("job", InventorySync).Str("warehouse", wh).Int("items", len(items)).Msg("inventory fetched")
			perWarehouse[wh] = items
		}

		rows := inventoryRows(perWarehouse, d.Options.Warehouses)
		n, err := d.Stock.ReplaceInventory(ctx, rows)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{
			Rows:     n,
			Datasets: []string{cache.DatasetInventory, cache.DatasetInventoryDays, cache.DatasetClassification},
		}, nil
	}}
}

func (d *Deps) ProductsSync() pipeline.Job {
	return job{name: ProductsSync, run: func(ctx context.Context) (pipeline.Result, error) {
		items, err := d.ERP.Products(ctx)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error fetching products: %w", err)
		}
		n, err := d.Master.ReplaceProducts(ctx, products(items))
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n}, nil
	}}
}

func (d *Deps) PricesSync() pipeline.Job {
	return job{name: PricesSync, run: func(ctx context.Context) (pipeline.Result, error) {
		items, err := d.ERP.Prices(ctx, d.Options.PriceList)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error fetching price list %s: %w", d.Options.PriceList, err)
		}
		n, err := d.Master.ReplacePrices(ctx, prices(items, d.Options.PriceList))
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n}, nil
	}}
}

// ClientsSync upserts the clients changed in the last minutes.
func (d *Deps) ClientsSync() pipeline.Job {
	return job{name: ClientsSync, run: func(ctx context.Context) (pipeline.Result, error) {
		now := d.clock()
		items, err := d.ERP.Clients(ctx, now.Add(-clientCutoffMargin))
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error fetching clients: %w", err)
		}

		rows := clients(items, now.UTC())
		log.Debug().Str("job", ClientsSync).Int("received", len(items)).Int("valid", len(rows)).Msg("clients normalized")
		if len(rows) == 0 {
			return pipeline.Result{}, nil
		}

		n, err := d.Master.UpsertClients(ctx, rows)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n}, nil
	}}
}

// SalesSync recomputes the 30/60/90 day rotations from the last 90 days of
// sales, fetched in three windows.
func (d *Deps) SalesSync() pipeline.Job {
	return job{name: SalesSync, run: func(ctx context.Context) (pipeline.Result, error) {
		now := d.clock()

		var events []domain.SaleEvent
		for _, window := range erp.SalesWindows(now) {
			items, err := d.ERP.Sales(ctx, window)
			if err != nil {
				return pipeline.Result{}, fmt.Errorf("error fetching sales %s-%s: %w", window.From, window.To, err)
			}
			log.Debug().Str("job", SalesSync).Str("from", window.From).Str("to", window.To).Int("items", len(items)).Msg("sales window fetched")
			events = append(events, saleEvents(items)...)
		}

		rotations := stock.SortedRotations(stock.Aggregate(events, now))
		n, err := d.Stock.ReplaceRotations(ctx, rotations)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n, Datasets: []string{cache.DatasetInventoryDays}}, nil
	}}
}

func (d *Deps) SalesDetailSync() pipeline.Job {
	return job{name: SalesDetailSync, run: func(ctx context.Context) (pipeline.Result, error) {
		now := d.clock()
		items, err := d.ERP.Sales(ctx, erp.LastDays(now, salesDetailDays))
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error fetching sales detail: %w", err)
		}
		n, err := d.Master.ReplaceSalesDetail(ctx, saleDetails(items, now.Location()))
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n}, nil
	}}
}

// InvoiceLinesSync appends the point of sale lines of the previous day.
func (d *Deps) InvoiceLinesSync() pipeline.Job {
	return job{name: InvoiceLinesSync, run: func(ctx context.Context) (pipeline.Result, error) {
		now := d.clock()
		day := now.AddDate(0, 0, -1)
		items, err := d.ERP.InvoiceLines(ctx, day)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error fetching invoice lines: %w", err)
		}

		rows := invoiceLines(items, now.Location())
		log.Info().
			Str("job", InvoiceLinesSync).
			Str("day", day.Format("2006-01-02")).
			Int("received", len(items)).
			Int("kept", len(rows)).
			Msg("invoice lines filtered")
		if len(rows) == 0 {
			return pipeline.Result{}, nil
		}

		n, err := d.Master.AppendInvoiceLines(ctx, rows)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n}, nil
	}}
}

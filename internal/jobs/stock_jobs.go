package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/pipeline/stock"
)

func (d *Deps) loadStock(ctx context.Context) ([]domain.InventoryRow, map[domain.Key]domain.RotationRecord, error) {
	inventory, err := d.Stock.ListInventory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading inventory: %w", err)
	}
	rotations, err := d.Stock.ListRotations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading rotations: %w", err)
	}
	return inventory, stock.IndexRotations(rotations), nil
}

// Classification recomputes the ABC class of every stocked SKU.
func (d *Deps) Classification() pipeline.Job {
	return job{name: Classification, run: func(ctx context.Context) (pipeline.Result, error) {
		inventory, rotations, err := d.loadStock(ctx)
		if err != nil {
			return pipeline.Result{}, err
		}

		rows := stock.Classify(inventory, rotations)
		n, err := d.Stock.ReplaceClassification(ctx, rows)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{
			Rows:     n,
			Datasets: []string{cache.DatasetClassification, cache.DatasetInventoryDays},
		}, nil
	}}
}

// StockAlerts evaluates the stock status of every SKU with rotation and
// stores the shortage rows as the current alerts.
func (d *Deps) StockAlerts() pipeline.Job {
	return job{name: StockAlerts, run: func(ctx context.Context) (pipeline.Result, error) {
		inventory, rotations, err := d.loadStock(ctx)
		if err != nil {
			return pipeline.Result{}, err
		}

		alerts := stock.Alerts(inventory, rotations)
		n, err := d.Stock.SaveAlerts(ctx, alerts, d.clock().UTC())
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n, Datasets: []string{cache.DatasetStockAlerts}}, nil
	}}
}

// Suggestions recomputes the purchase suggestions from inventory, rotation
// and class.
func (d *Deps) Suggestions() pipeline.Job {
	return job{name: Suggestions, run: func(ctx context.Context) (pipeline.Result, error) {
		inventory, rotations, err := d.loadStock(ctx)
		if err != nil {
			return pipeline.Result{}, err
		}
		classes, err := d.Stock.ListClassification(ctx)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error loading classification: %w", err)
		}

		positions := stock.Merge(inventory, rotations, stock.IndexClasses(classes))
		rows := stock.Suggestions(positions)
		log.Debug().Str("job", Suggestions).Int("positions", len(positions)).Int("suggestions", len(rows)).Msg("suggestions computed")

		n, err := d.Stock.ReplaceSuggestions(ctx, rows)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: n, Datasets: []string{cache.DatasetSuggestions}}, nil
	}}
}

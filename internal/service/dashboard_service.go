package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/export"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/pipeline/stock"
	"github.com/andresuchdata/erpsync/internal/repository"
)

// DashboardService serves the read endpoints, going through the dashboard
// cache first.
type DashboardService struct {
	dashboard repository.DashboardRepository
	stock     repository.StockRepository
	supplier  repository.SupplierRepository
	master    repository.MasterDataRepository
	runs      pipeline.RunRepository
	cache     cache.DashboardCache
}

func NewDashboardService(
	dashboard repository.DashboardRepository,
	stockRepo repository.StockRepository,
	supplier repository.SupplierRepository,
	master repository.MasterDataRepository,
	runs pipeline.RunRepository,
	cacheImpl cache.DashboardCache,
) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &DashboardService{
		dashboard: dashboard,
		stock:     stockRepo,
		supplier:  supplier,
		master:    master,
		runs:      runs,
		cache:     cacheImpl,
	}
}

// cached returns the cached value of dataset for filter or loads and stores
// it. Cache failures only cost a database round trip.
func cached[T any](ctx context.Context, c cache.DashboardCache, dataset string, filter domain.DashboardFilter, load func() ([]T, error)) ([]T, error) {
	var rows []T
	if ok, err := c.Get(ctx, dataset, filter, &rows); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Str("dataset", dataset).Msg("dashboard: cache get failed")
	}

	rows, err := load()
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]T, 0)
	}

	if err := c.Set(ctx, dataset, filter, rows); err != nil {
		log.Warn().Err(err).Str("dataset", dataset).Msg("dashboard: cache set failed")
	}
	return rows, nil
}

func (s *DashboardService) Inventory(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryRow, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetInventory, filter, func() ([]domain.InventoryRow, error) {
		return s.dashboard.Inventory(ctx, filter)
	})
}

// InventoryDays returns stock rows with their rotation and days of
// inventory.
func (s *DashboardService) InventoryDays(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryDays, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetInventoryDays, filter, func() ([]domain.InventoryDays, error) {
		rows, err := s.dashboard.InventoryWithRotation(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			if days, ok := stock.DaysOfInventory(rows[i].Stock, rows[i].Rot90); ok {
				rows[i].DaysOfInventory = &days
			}
		}
		return rows, nil
	})
}

func (s *DashboardService) Classification(ctx context.Context, filter domain.DashboardFilter) ([]domain.ClassificationView, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetClassification, filter, func() ([]domain.ClassificationView, error) {
		return s.dashboard.Classification(ctx, filter)
	})
}

// StockAlerts returns the alerts of the latest evaluation only.
func (s *DashboardService) StockAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.StockAlert, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetStockAlerts, filter, func() ([]domain.StockAlert, error) {
		return s.dashboard.CurrentAlerts(ctx, filter)
	})
}

func (s *DashboardService) Suggestions(ctx context.Context, filter domain.DashboardFilter) ([]domain.SuggestionRecord, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetSuggestions, filter, func() ([]domain.SuggestionRecord, error) {
		return s.stock.ListSuggestions(ctx, filter)
	})
}

func (s *DashboardService) SupplierCatalog(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierProduct, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetSupplier, filter, func() ([]domain.SupplierProduct, error) {
		return s.supplier.ListCatalog(ctx, filter)
	})
}

func (s *DashboardService) SupplierAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierAlert, error) {
	filter.Normalize()
	return cached(ctx, s.cache, cache.DatasetSupplierAlerts, filter, func() ([]domain.SupplierAlert, error) {
		return s.supplier.ListAlerts(ctx, filter)
	})
}

// JobRuns is not cached: it changes on every tick.
func (s *DashboardService) JobRuns(ctx context.Context, job string, limit int) ([]domain.JobRun, error) {
	runs, err := s.runs.Recent(ctx, job, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = make([]domain.JobRun, 0)
	}
	return runs, nil
}

// LookupClient finds a client by tax id.
func (s *DashboardService) LookupClient(ctx context.Context, taxID string) (*domain.Client, error) {
	if taxID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.master.FindClient(ctx, taxID)
}

// ExportWorkbook renders every suggestion matching filter plus the current
// stock alerts of the same warehouse into an xlsx workbook.
func (s *DashboardService) ExportWorkbook(ctx context.Context, filter domain.DashboardFilter) ([]byte, error) {
	filter.Page, filter.PageSize = 0, 0
	suggestions, err := s.stock.ListSuggestions(ctx, filter)
	if err != nil {
		return nil, err
	}

	alertFilter := domain.DashboardFilter{Warehouse: filter.Warehouse, PageSize: 5000}
	alertFilter.Normalize()
	alerts, err := s.dashboard.CurrentAlerts(ctx, alertFilter)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	data, err := export.Workbook(suggestions, alerts)
	if err != nil {
		return nil, fmt.Errorf("error building workbook: %w", err)
	}
	log.Debug().
		Int("suggestions", len(suggestions)).
		Int("alerts", len(alerts)).
		Dur("took", time.Since(started)).
		Msg("dashboard: workbook exported")
	return data, nil
}

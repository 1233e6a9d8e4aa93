package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/domain"
)

const (
	dashboardKeyPrefix = "dashboard"
	scanBatchSize      = 100
)

// Datasets cached by the read endpoints. Jobs invalidate the ones they write.
const (
	DatasetInventory      = "inventory"
	DatasetInventoryDays  = "inventory_days"
	DatasetClassification = "classification"
	DatasetStockAlerts    = "stock_alerts"
	DatasetSuggestions    = "suggestions"
	DatasetSupplier       = "supplier"
	DatasetSupplierAlerts = "supplier_alerts"
)

// DashboardCache stores JSON encoded read results keyed by dataset and
// filter.
type DashboardCache interface {
	Get(ctx context.Context, dataset string, filter domain.DashboardFilter, dest any) (bool, error)
	Set(ctx context.Context, dataset string, filter domain.DashboardFilter, value any) error
	Invalidate(ctx context.Context, datasets ...string) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, dataset string, filter domain.DashboardFilter, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(dataset, filter)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", dataset, err)
	}
	return true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, dataset string, filter domain.DashboardFilter, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", dataset, err)
	}

	if err := c.client.Set(ctx, buildDashboardKey(dataset, filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, datasets ...string) error {
	for _, ds := range datasets {
		n, err := deleteKeysWithPrefix(ctx, c.client, datasetPrefix(ds), scanBatchSize)
		if err != nil {
			return err
		}
		log.Debug().Str("dataset", ds).Int("keys", n).Msg("dashboard cache invalidated")
	}
	return nil
}

func (n *noopDashboardCache) Get(ctx context.Context, dataset string, filter domain.DashboardFilter, dest any) (bool, error) {
	return false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, dataset string, filter domain.DashboardFilter, value any) error {
	return nil
}

func (n *noopDashboardCache) Invalidate(ctx context.Context, datasets ...string) error {
	return nil
}

func datasetPrefix(dataset string) string {
	return dashboardKeyPrefix + ":" + dataset + ":"
}

func buildDashboardKey(dataset string, filter domain.DashboardFilter) string {
	return datasetPrefix(dataset) + dashboardFilterHash(filter)
}

func dashboardFilterHash(filter domain.DashboardFilter) string {
	filter.Normalize()

	parts := []string{
		fmt.Sprintf("page=%d", filter.Page),
		fmt.Sprintf("page_size=%d", filter.PageSize),
	}
	if v := strings.TrimSpace(filter.Warehouse); v != "" {
		parts = append(parts, "warehouse="+strings.ToUpper(v))
	}
	if v := strings.TrimSpace(filter.SKU); v != "" {
		parts = append(parts, "sku="+v)
	}
	if v := strings.TrimSpace(filter.Class); v != "" {
		parts = append(parts, "class="+strings.ToUpper(v))
	}
	if v := strings.TrimSpace(filter.Status); v != "" {
		parts = append(parts, "status="+strings.ToUpper(v))
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		parts = append(parts, "q="+strings.ToLower(v))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

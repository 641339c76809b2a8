package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
)

const (
	dashboardSummaryKeyPrefix = "dashboard:summary"
	dashboardSummaryKey       = dashboardSummaryKeyPrefix + ":latest"
)

type DashboardSummaryCache interface {
	GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error)
	SetSummary(ctx context.Context, summary *domain.DashboardSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardSummaryCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisDashboardCache(client, ttl), nil
}

func NewRedisDashboardCache(client redis.Cmdable, ttl time.Duration) DashboardSummaryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisDashboardCache{client: client, ttl: ttl}
}

func NewNoopDashboardCache() DashboardSummaryCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error) {
	var summary domain.DashboardSummary
	ok, err := getJSON(ctx, c.client, dashboardSummaryKey, &summary)
	if err != nil || !ok {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisDashboardCache) SetSummary(ctx context.Context, summary *domain.DashboardSummary) error {
	return setJSON(ctx, c.client, dashboardSummaryKey, summary, c.ttl)
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardSummaryKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetSummary(ctx context.Context, summary *domain.DashboardSummary) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

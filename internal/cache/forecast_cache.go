package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
)

const forecastKeyPrefix = "forecast:response"

// ForecastCache stores complete forecast responses keyed by the normalized request.
type ForecastCache interface {
	GetForecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, bool, error)
	SetForecast(ctx context.Context, req domain.ForecastRequest, resp *domain.ForecastResponse) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache connects to redis when caching is enabled and returns a
// no-op cache otherwise.
func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisForecastCache(client, ttl), nil
}

// NewRedisForecastCache wraps an existing client.
func NewRedisForecastCache(client redis.Cmdable, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, bool, error) {
	var resp domain.ForecastResponse
	ok, err := getJSON(ctx, c.client, BuildForecastKey(req), &resp)
	if err != nil || !ok {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *redisForecastCache) SetForecast(ctx context.Context, req domain.ForecastRequest, resp *domain.ForecastResponse) error {
	return setJSON(ctx, c.client, BuildForecastKey(req), resp, c.ttl)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, scanBatchSize)
}

func (n *noopForecastCache) GetForecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecast(ctx context.Context, req domain.ForecastRequest, resp *domain.ForecastResponse) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildForecastKey hashes every field that changes the response. SKUs are
// case-sensitive; enum-like fields are case-folded.
func BuildForecastKey(req domain.ForecastRequest) string {
	parts := []string{
		"sku=" + strings.TrimSpace(req.SKU),
		"model=" + strings.ToUpper(string(req.Model)),
		"horizon=" + strconv.Itoa(req.Horizon),
		"lead_time=" + strconv.Itoa(req.LeadTime),
		"customer_type=" + strings.ToLower(string(req.CustomerType)),
		"range=" + strings.ToUpper(string(req.Range)),
	}
	if req.CurrentStock != nil {
		parts = append(parts, fmt.Sprintf("current_stock=%.4f", *req.CurrentStock))
	}
	if req.SafetyStock != nil {
		parts = append(parts, fmt.Sprintf("safety_stock=%.4f", *req.SafetyStock))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, hex.EncodeToString(hash[:]))
}

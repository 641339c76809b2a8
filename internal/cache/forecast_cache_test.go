package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
)

func baseRequest() domain.ForecastRequest {
	return domain.ForecastRequest{
		SKU:          "A-100",
		Model:        forecast.ModelHolt,
		Horizon:      6,
		LeadTime:     1,
		CustomerType: replenishment.CustomerRegular,
		Range:        forecast.Range12M,
	}
}

func TestBuildForecastKey(t *testing.T) {
	base := BuildForecastKey(baseRequest())
	assert.True(t, strings.HasPrefix(base, forecastKeyPrefix+":"))
	assert.Equal(t, base, BuildForecastKey(baseRequest()), "key must be stable")

	stock := 40.0
	tests := []struct {
		name   string
		mutate func(r *domain.ForecastRequest)
	}{
		{"sku", func(r *domain.ForecastRequest) { r.SKU = "A-101" }},
		{"model", func(r *domain.ForecastRequest) { r.Model = forecast.ModelSES }},
		{"horizon", func(r *domain.ForecastRequest) { r.Horizon = 12 }},
		{"lead time", func(r *domain.ForecastRequest) { r.LeadTime = 3 }},
		{"customer type", func(r *domain.ForecastRequest) { r.CustomerType = replenishment.CustomerKeyAccount }},
		{"range", func(r *domain.ForecastRequest) { r.Range = forecast.RangeAll }},
		{"stock override", func(r *domain.ForecastRequest) { r.CurrentStock = &stock }},
		{"safety override", func(r *domain.ForecastRequest) { r.SafetyStock = &stock }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			assert.NotEqual(t, base, BuildForecastKey(req))
		})
	}

	t.Run("sku whitespace is ignored", func(t *testing.T) {
		req := baseRequest()
		req.SKU = "  A-100 "
		assert.Equal(t, base, BuildForecastKey(req))
	})
}

func TestNewForecastCache_Disabled(t *testing.T) {
	ctx := context.Background()

	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, &noopForecastCache{}, c)

	require.NoError(t, c.SetForecast(ctx, baseRequest(), &domain.ForecastResponse{}))
	resp, ok, err := c.GetForecast(ctx, baseRequest())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, resp)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestNewDashboardCache_Disabled(t *testing.T) {
	ctx := context.Background()

	c, err := NewDashboardCache(config.CacheConfig{})
	require.NoError(t, err)

	require.NoError(t, c.SetSummary(ctx, &domain.DashboardSummary{}))
	_, ok, err := c.GetSummary(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildRedisOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{})
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	})

	t.Run("discrete fields", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisPassword: "pw", RedisDB: 2})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, "pw", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("url wins", func(t *testing.T) {
		opts, err := buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.internal:6390/3", RedisHost: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6390", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 3, opts.DB)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
		assert.Error(t, err)
	})
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, defaultCacheTTL, cacheTTL(config.CacheConfig{}))
	assert.Equal(t, "30s", cacheTTL(config.CacheConfig{ForecastTTLSeconds: 30}).String())
}

package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func testDefaults() ForecastDefaults {
	return DefaultsFromConfig(config.ForecastConfig{})
}

func newTestForecastService(repo *fakeRepo, safety replenishment.SafetyStockProvider, c *fakeForecastCache) *ForecastService {
	var svc *ForecastService
	if c == nil {
		svc = NewForecastService(repo, safety, nil, testDefaults())
	} else {
		svc = NewForecastService(repo, safety, c, testDefaults())
	}
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestDefaultsFromConfig(t *testing.T) {
	t.Run("zero config uses built-in defaults", func(t *testing.T) {
		d := DefaultsFromConfig(config.ForecastConfig{})
		assert.Equal(t, forecast.ModelHolt, d.Model)
		assert.Equal(t, 6, d.Horizon)
		assert.Equal(t, 1, d.LeadTime)
		assert.Equal(t, forecast.Range12M, d.Range)
		assert.Equal(t, 3, d.BacktestHoldout)
	})

	t.Run("configured values are clamped", func(t *testing.T) {
		d := DefaultsFromConfig(config.ForecastConfig{
			PrimaryModel:    "ses",
			DefaultHorizon:  99,
			DefaultLeadTime: 30,
			DefaultRange:    "all",
			BacktestHoldout: 4,
		})
		assert.Equal(t, forecast.ModelSES, d.Model)
		assert.Equal(t, 24, d.Horizon)
		assert.Equal(t, 12, d.LeadTime)
		assert.Equal(t, forecast.RangeAll, d.Range)
		assert.Equal(t, 4, d.BacktestHoldout)
	})

	t.Run("invalid model is ignored", func(t *testing.T) {
		assert.Equal(t, forecast.ModelHolt, DefaultsFromConfig(config.ForecastConfig{PrimaryModel: "arima"}).Model)
	})
}

func TestNormalizeRequest(t *testing.T) {
	d := testDefaults()

	tests := []struct {
		name     string
		in       domain.ForecastRequest
		expected domain.ForecastRequest
	}{
		{
			name: "empty request takes defaults",
			in:   domain.ForecastRequest{SKU: " A-1 "},
			expected: domain.ForecastRequest{
				SKU: "A-1", Model: forecast.ModelHolt, Horizon: 6, LeadTime: 1,
				CustomerType: replenishment.CustomerRegular, Range: forecast.Range12M,
			},
		},
		{
			name: "values are parsed and clamped",
			in: domain.ForecastRequest{
				SKU: "A-1", Model: "holt-winters", Horizon: 40, LeadTime: 13,
				CustomerType: "KA", Range: "6m",
			},
			expected: domain.ForecastRequest{
				SKU: "A-1", Model: forecast.ModelHoltWinters, Horizon: 24, LeadTime: 12,
				CustomerType: replenishment.CustomerKeyAccount, Range: forecast.Range6M,
			},
		},
		{
			name: "unknown enums fall back",
			in:   domain.ForecastRequest{SKU: "A-1", Model: "ARIMA", CustomerType: "vip", Range: "7M"},
			expected: domain.ForecastRequest{
				SKU: "A-1", Model: forecast.ModelHolt, Horizon: 6, LeadTime: 1,
				CustomerType: replenishment.CustomerRegular, Range: forecast.Range12M,
			},
		},
		{
			name: "non-finite stock overrides are dropped",
			in:   domain.ForecastRequest{SKU: "A-1", CurrentStock: ptr(math.NaN()), SafetyStock: ptr(math.Inf(1))},
			expected: domain.ForecastRequest{
				SKU: "A-1", Model: forecast.ModelHolt, Horizon: 6, LeadTime: 1,
				CustomerType: replenishment.CustomerRegular, Range: forecast.Range12M,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRequest(tt.in, d))
		})
	}
}

func TestCompute(t *testing.T) {
	records := monthlyRows("A-1", "2025-01", 50, nil, 10, 20, 30, 40)
	req := NormalizeRequest(domain.ForecastRequest{SKU: "A-1", Model: forecast.ModelNaive, Horizon: 3, LeadTime: 2}, testDefaults())

	resp := Compute(req, records, ptr(30), 2, fixedNow)

	require.Len(t, resp.History, 4)
	assert.Equal(t, forecast.ModelNaive, resp.Forecast.Model)
	assert.False(t, resp.Forecast.Substituted)
	require.Len(t, resp.Forecast.Points, 3)
	assert.Equal(t, "2025-05-01", resp.Forecast.Points[0].Month.String())
	assert.Equal(t, 40.0, resp.Forecast.Points[2].Quantity)

	snap := resp.Replenishment
	assert.Equal(t, 50.0, snap.CurrentStock)
	assert.True(t, snap.CurrentStockKnown)
	assert.Equal(t, 30.0, snap.SafetyStock)
	assert.Equal(t, 80.0, snap.LeadTimeDemand)
	assert.Equal(t, 60.0, snap.ReorderQuantity)
	assert.Equal(t, replenishment.RiskHealthy, snap.Risk.Tier)
	require.NotNil(t, snap.StockoutMonth)
	assert.Equal(t, "2025-05-01", snap.StockoutMonth.String())

	assert.Empty(t, resp.Warnings)
	assert.NotEmpty(t, resp.Backtests)
	assert.Equal(t, fixedNow, resp.GeneratedAt)

	summary := resp.Summary
	assert.Equal(t, "A-1", summary.SKU)
	assert.Equal(t, 60.0, summary.ReorderQuantity)
	require.NotNil(t, summary.StockoutMonth)
	assert.Equal(t, "2025-05-01", *summary.StockoutMonth)
	assert.Len(t, summary.NextMonths[forecast.ModelHolt], 3)
	assert.NotContains(t, summary.NextMonths, forecast.ModelHoltWinters)
}

func TestCompute_SubstitutesShortHistory(t *testing.T) {
	records := monthlyRows("A-1", "2025-01", 5, nil, 10, 20)
	req := NormalizeRequest(domain.ForecastRequest{SKU: "A-1", Model: forecast.ModelHolt}, testDefaults())

	resp := Compute(req, records, nil, 3, fixedNow)

	assert.Equal(t, forecast.ModelHolt, resp.Forecast.Requested)
	assert.Equal(t, forecast.ModelSES, resp.Forecast.Model)
	assert.True(t, resp.Forecast.Substituted)
	assert.False(t, resp.Replenishment.SafetyStockKnown)
	assert.Contains(t, resp.Warnings, "safety stock unknown, treated as 0")
	assert.Len(t, resp.Warnings, 2)
	assert.Empty(t, resp.Backtests)
}

func TestCompute_RequestOverridesWin(t *testing.T) {
	records := monthlyRows("A-1", "2025-01", 50, nil, 10, 20, 30)
	req := NormalizeRequest(domain.ForecastRequest{
		SKU: "A-1", Model: forecast.ModelNaive, CurrentStock: ptr(5), SafetyStock: ptr(100),
	}, testDefaults())

	resp := Compute(req, records, ptr(30), 3, fixedNow)

	assert.Equal(t, 5.0, resp.Replenishment.CurrentStock)
	assert.Equal(t, 100.0, resp.Replenishment.SafetyStock)
	assert.Equal(t, replenishment.RiskAtRisk, resp.Replenishment.Risk.Tier)
}

func TestCompute_RangeWindowsChart(t *testing.T) {
	sales := make([]float64, 20)
	for i := range sales {
		sales[i] = float64(10 + i)
	}
	records := monthlyRows("A-1", "2023-01", 50, ptr(10), sales...)
	req := NormalizeRequest(domain.ForecastRequest{SKU: "A-1", Horizon: 2, Range: "6M"}, testDefaults())

	resp := Compute(req, records, nil, 3, fixedNow)

	require.Len(t, resp.Chart.Rows, 8)
	assert.NotNil(t, resp.Chart.Rows[5].Actual)
	assert.Nil(t, resp.Chart.Rows[6].Actual)
}

func TestForecastService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("requires sku", func(t *testing.T) {
		svc := newTestForecastService(&fakeRepo{}, nil, newFakeForecastCache())
		_, err := svc.Run(ctx, domain.ForecastRequest{SKU: "  "})
		assert.ErrorIs(t, err, ErrSKURequired)
	})

	t.Run("unknown sku", func(t *testing.T) {
		svc := newTestForecastService(&fakeRepo{}, nil, newFakeForecastCache())
		_, err := svc.Run(ctx, domain.ForecastRequest{SKU: "missing"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		boom := errors.New("connection refused")
		svc := newTestForecastService(&fakeRepo{err: boom}, nil, newFakeForecastCache())
		_, err := svc.Run(ctx, domain.ForecastRequest{SKU: "A-1"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("resolves safety stock and caches", func(t *testing.T) {
		repo := &fakeRepo{rows: monthlyRows("A-1", "2025-01", 50, nil, 10, 20, 30, 40)}
		static := replenishment.NewStaticProvider(map[string]float64{"A-1": 30})
		c := newFakeForecastCache()
		svc := newTestForecastService(repo, replenishment.NewResolver(static), c)

		first, err := svc.Run(ctx, domain.ForecastRequest{SKU: "A-1", Model: "NAIVE", LeadTime: 2})
		require.NoError(t, err)
		assert.Equal(t, 30.0, first.Replenishment.SafetyStock)
		assert.True(t, first.Replenishment.SafetyStockKnown)
		assert.Equal(t, 1, repo.calls)

		second, err := svc.Run(ctx, domain.ForecastRequest{SKU: "A-1", Model: "naive", LeadTime: 2})
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, repo.calls, "second run must be served from cache")
	})

	t.Run("cache errors are ignored", func(t *testing.T) {
		repo := &fakeRepo{rows: monthlyRows("A-1", "2025-01", 50, nil, 10, 20)}
		c := newFakeForecastCache()
		c.getErr = errors.New("redis down")
		svc := newTestForecastService(repo, nil, c)

		resp, err := svc.Run(ctx, domain.ForecastRequest{SKU: "A-1"})
		require.NoError(t, err)
		assert.Len(t, resp.History, 2)
	})
}

func TestForecastService_Demand(t *testing.T) {
	rows := append(monthlyRows("A-1", "2025-01", 0, nil, 5, 6), monthlyRows("A-1", "2025-01", 0, nil, 1)...)
	svc := newTestForecastService(&fakeRepo{rows: rows}, nil, nil)

	demand, err := svc.Demand(context.Background(), "A-1")
	require.NoError(t, err)
	require.Len(t, demand, 2)
	assert.Equal(t, 6.0, demand[0].Quantity)
	assert.Equal(t, 6.0, demand[1].Quantity)

	_, err = svc.Demand(context.Background(), "")
	assert.ErrorIs(t, err, ErrSKURequired)
}

func TestForecastService_Rows(t *testing.T) {
	ctx := context.Background()
	svc := newTestForecastService(&fakeRepo{rows: monthlyRows("A-1", "2025-01", 4, ptr(10), 5, 6)}, nil, nil)

	rows, err := svc.Rows(ctx, " A-1 ")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RowStatusLow, rows[0].Status)
	assert.Equal(t, 6.0, rows[1].MonthSales)

	_, err = svc.Rows(ctx, "B-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Rows(ctx, "")
	assert.ErrorIs(t, err, ErrSKURequired)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
)

func row(sku, month string, stock, sales float64, safety *float64) domain.InventoryRecord {
	return domain.InventoryRecord{
		SKU:           sku,
		Month:         mustMonth(month).Time(),
		MonthEndStock: stock,
		MonthSales:    sales,
		SafetyStock:   safety,
	}
}

func dashboardRows() []domain.InventoryRecord {
	return []domain.InventoryRecord{
		row("A", "2025-01", 50, 10, ptr(20)),
		row("B", "2025-01", 5, 2, ptr(10)),
		row("A", "2025-02", 30, 8, ptr(20)),
		row("A", "2025-02", 10, 7, nil),
		row("B", "2025-02", 0, 4, ptr(10)),
		row("C", "2025-02", 100, 1, nil),
	}
}

func kpi(t *testing.T, s *domain.DashboardSummary, id string) domain.DashboardKPI {
	t.Helper()
	for _, k := range s.KPIs {
		if k.ID == id {
			return k
		}
	}
	t.Fatalf("kpi %s not found", id)
	return domain.DashboardKPI{}
}

func TestBuildDashboard(t *testing.T) {
	s := BuildDashboard(dashboardRows(), DashboardMaxRows, fixedNow)

	require.NotNil(t, s.LatestMonth)
	require.NotNil(t, s.PreviousMonth)
	assert.Equal(t, "2025-02", *s.LatestMonth)
	assert.Equal(t, "2025-01", *s.PreviousMonth)

	assert.Equal(t, 3, s.StockStatus.TotalSKUs)
	assert.Equal(t, 1, s.StockStatus.Counts[replenishment.StatusOutOfStock])
	assert.Equal(t, 2, s.StockStatus.Counts[replenishment.StatusNormalStock])
	assert.Equal(t, 33.3, s.StockStatus.Percentages[replenishment.StatusOutOfStock])

	require.Len(t, s.KPIs, 4)

	skus := kpi(t, s, "kpi_1")
	assert.Equal(t, 3.0, skus.Value)
	require.NotNil(t, skus.Delta)
	assert.Equal(t, 50.0, *skus.Delta)
	assert.Equal(t, "Latest month 2025-02", skus.Subtext)

	risk := kpi(t, s, "kpi_2")
	assert.Equal(t, 1.0, risk.Value)
	require.NotNil(t, risk.Delta)
	assert.Equal(t, 0.0, *risk.Delta)
	assert.Equal(t, "number", risk.DeltaType)

	stock := kpi(t, s, "kpi_3")
	assert.Equal(t, 140.0, stock.Value)
	assert.Equal(t, 154.5, *stock.Delta)
	assert.Equal(t, "vs 2025-01", stock.Subtext)

	sales := kpi(t, s, "kpi_4")
	assert.Equal(t, 20.0, sales.Value)
	assert.Equal(t, 66.7, *sales.Delta)

	assert.Equal(t, []domain.LowStockItem{{SKU: "B", CurrentStock: 0, SafetyStock: 10, Gap: 10}}, s.LowStock)
	assert.Equal(t, []domain.TopSeller{{SKU: "A", Sales: 15}, {SKU: "B", Sales: 4}, {SKU: "C", Sales: 1}}, s.TopSellers)

	assert.Equal(t, 6, s.Meta.SampledRows)
	assert.False(t, s.Meta.Truncated)
	assert.Equal(t, fixedNow, s.GeneratedAt)
}

func TestBuildDashboard_Empty(t *testing.T) {
	s := BuildDashboard(nil, DashboardMaxRows, fixedNow)

	assert.Nil(t, s.LatestMonth)
	assert.Nil(t, s.PreviousMonth)
	require.Len(t, s.KPIs, 4)
	for _, k := range s.KPIs {
		assert.Zero(t, k.Value)
	}
	assert.Nil(t, kpi(t, s, "kpi_1").Delta)
	assert.Equal(t, "Latest month", kpi(t, s, "kpi_1").Subtext)
	assert.Equal(t, "Latest snapshot", kpi(t, s, "kpi_3").Subtext)
	assert.NotNil(t, s.LowStock)
	assert.NotNil(t, s.TopSellers)
	assert.Zero(t, s.StockStatus.TotalSKUs)
}

func TestBuildDashboard_SingleMonthAndTruncation(t *testing.T) {
	rows := []domain.InventoryRecord{
		row("A", "2025-03", 10, 1, nil),
		row("B", "2025-03", 10, 1, nil),
	}
	s := BuildDashboard(rows, 2, fixedNow)

	require.NotNil(t, s.LatestMonth)
	assert.Nil(t, s.PreviousMonth)
	assert.Nil(t, kpi(t, s, "kpi_4").Delta)
	assert.True(t, s.Meta.Truncated)
}

type fakeDashboardCache struct {
	summary *domain.DashboardSummary
	sets    int
}

func (c *fakeDashboardCache) GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error) {
	return c.summary, c.summary != nil, nil
}

func (c *fakeDashboardCache) SetSummary(ctx context.Context, summary *domain.DashboardSummary) error {
	c.summary = summary
	c.sets++
	return nil
}

func (c *fakeDashboardCache) InvalidateAll(ctx context.Context) error {
	c.summary = nil
	return nil
}

func TestDashboardService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("computes then serves from cache", func(t *testing.T) {
		c := &fakeDashboardCache{}
		svc := NewDashboardService(&fakeRepo{rows: dashboardRows()}, c)
		svc.now = func() time.Time { return fixedNow }

		first, err := svc.Summary(ctx)
		require.NoError(t, err)
		second, err := svc.Summary(ctx)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, c.sets)
	})

	t.Run("repository error", func(t *testing.T) {
		boom := errors.New("timeout")
		svc := NewDashboardService(&fakeRepo{err: boom}, nil)
		_, err := svc.Summary(ctx)
		assert.ErrorIs(t, err, boom)
	})
}

package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
)

const (
	// DashboardMaxRows bounds how many recent rows feed the dashboard.
	DashboardMaxRows = 12000
	dashboardTopN    = 10
)

type DashboardService struct {
	repo  repository.InventoryRepository
	cache cache.DashboardSummaryCache
	now   func() time.Time
}

func NewDashboardService(repo repository.InventoryRepository, cacheImpl cache.DashboardSummaryCache) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	return &DashboardService{repo: repo, cache: cacheImpl, now: time.Now}
}

func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get summary failed")
	}

	rows, err := s.repo.GetLatestRows(ctx, DashboardMaxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard rows: %w", err)
	}

	summary := BuildDashboard(rows, DashboardMaxRows, s.now())

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set summary failed")
	}
	return summary, nil
}

// skuMonth is one SKU's totals for one month.
type skuMonth struct {
	sku    string
	stock  float64
	sales  float64
	safety *float64
}

// BuildDashboard summarizes the latest month against the one before it. Rows
// of the same SKU and month are summed; safety stock takes the largest value.
func BuildDashboard(rows []domain.InventoryRecord, maxRows int, now time.Time) *domain.DashboardSummary {
	buckets := make(map[forecast.Month]map[string]*skuMonth)
	for _, r := range rows {
		if r.SKU == "" || r.Month.IsZero() {
			continue
		}
		m := forecast.MonthOf(r.Month)
		bySKU, ok := buckets[m]
		if !ok {
			bySKU = make(map[string]*skuMonth)
			buckets[m] = bySKU
		}
		entry, ok := bySKU[r.SKU]
		if !ok {
			entry = &skuMonth{sku: r.SKU}
			bySKU[r.SKU] = entry
		}
		entry.stock += finite(r.MonthEndStock)
		entry.sales += finite(r.MonthSales)
		if r.SafetyStock != nil && (entry.safety == nil || *r.SafetyStock > *entry.safety) {
			v := *r.SafetyStock
			entry.safety = &v
		}
	}

	months := make([]forecast.Month, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	summary := &domain.DashboardSummary{
		GeneratedAt: now.UTC(),
		Meta: domain.DashboardMeta{
			SampledRows: len(rows),
			Truncated:   maxRows > 0 && len(rows) >= maxRows,
		},
	}

	var latest, previous []*skuMonth
	if n := len(months); n > 0 {
		label := monthKey(months[n-1])
		summary.LatestMonth = &label
		latest = sortedEntries(buckets[months[n-1]])
		if n > 1 {
			prev := monthKey(months[n-2])
			summary.PreviousMonth = &prev
			previous = sortedEntries(buckets[months[n-2]])
		}
	}

	latestBreakdown := replenishment.StockStatusBreakdown(positions(latest))
	previousBreakdown := replenishment.StockStatusBreakdown(positions(previous))

	summary.StockStatus = latestBreakdown
	summary.KPIs = buildKPIs(summary.LatestMonth, summary.PreviousMonth, latest, previous, latestBreakdown, previousBreakdown)
	summary.LowStock = lowStock(latest)
	summary.TopSellers = topSellers(latest)
	return summary
}

func monthKey(m forecast.Month) string {
	return m.Time().Format("2006-01")
}

func sortedEntries(bySKU map[string]*skuMonth) []*skuMonth {
	out := make([]*skuMonth, 0, len(bySKU))
	for _, e := range bySKU {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].sku < out[j].sku })
	return out
}

func positions(entries []*skuMonth) []replenishment.StockPosition {
	out := make([]replenishment.StockPosition, len(entries))
	for i, e := range entries {
		out[i] = replenishment.StockPosition{
			SKU:          e.sku,
			CurrentStock: e.stock,
			SafetyStock:  e.safety,
		}
	}
	return out
}

func buildKPIs(
	latestMonth, previousMonth *string,
	latest, previous []*skuMonth,
	latestBreakdown, previousBreakdown replenishment.Breakdown,
) []domain.DashboardKPI {
	latestSKUs := float64(len(latest))
	previousSKUs := float64(len(previous))

	latestRisk := float64(latestBreakdown.Counts[replenishment.StatusLowStock] + latestBreakdown.Counts[replenishment.StatusOutOfStock])
	previousRisk := float64(previousBreakdown.Counts[replenishment.StatusLowStock] + previousBreakdown.Counts[replenishment.StatusOutOfStock])
	riskDelta := latestRisk - previousRisk

	latestStock, latestSales := totals(latest)
	previousStock, previousSales := totals(previous)

	skuSubtext, salesSubtext, stockSubtext := "Latest month", "Latest month", "Latest snapshot"
	if latestMonth != nil {
		skuSubtext = "Latest month " + *latestMonth
		salesSubtext = "In " + *latestMonth
	}
	if previousMonth != nil {
		stockSubtext = "vs " + *previousMonth
	}

	return []domain.DashboardKPI{
		{
			ID:        "kpi_1",
			Title:     "Total SKUs",
			Value:     latestSKUs,
			Delta:     percentDelta(latestSKUs, previousSKUs),
			DeltaType: "percent",
			Subtext:   skuSubtext,
		},
		{
			ID:        "kpi_2",
			Title:     "At Risk SKUs",
			Value:     latestRisk,
			Delta:     &riskDelta,
			DeltaType: "number",
			Subtext:   "Low + Out of stock",
		},
		{
			ID:        "kpi_3",
			Title:     "Current Stock Units",
			Value:     latestStock,
			Delta:     percentDelta(latestStock, previousStock),
			DeltaType: "percent",
			Subtext:   stockSubtext,
		},
		{
			ID:        "kpi_4",
			Title:     "Monthly Sales",
			Value:     latestSales,
			Delta:     percentDelta(latestSales, previousSales),
			DeltaType: "percent",
			Subtext:   salesSubtext,
		},
	}
}

// percentDelta is the one-decimal percent change, nil without a usable base.
func percentDelta(current, previous float64) *float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsInf(previous, 0) {
		return nil
	}
	delta := math.Round((current-previous)/previous*1000) / 10
	return &delta
}

func totals(entries []*skuMonth) (stock, sales float64) {
	for _, e := range entries {
		stock += e.stock
		sales += e.sales
	}
	return stock, sales
}

func lowStock(entries []*skuMonth) []domain.LowStockItem {
	out := make([]domain.LowStockItem, 0)
	for _, e := range entries {
		if e.safety == nil || e.stock >= *e.safety {
			continue
		}
		out = append(out, domain.LowStockItem{
			SKU:          e.sku,
			CurrentStock: e.stock,
			SafetyStock:  *e.safety,
			Gap:          *e.safety - e.stock,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gap > out[j].Gap })
	if len(out) > dashboardTopN {
		out = out[:dashboardTopN]
	}
	return out
}

func topSellers(entries []*skuMonth) []domain.TopSeller {
	out := make([]domain.TopSeller, 0)
	for _, e := range entries {
		if e.sales <= 0 {
			continue
		}
		out = append(out, domain.TopSeller{SKU: e.sku, Sales: e.sales})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	if len(out) > dashboardTopN {
		out = out[:dashboardTopN]
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

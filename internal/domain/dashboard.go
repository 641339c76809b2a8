package domain

import (
	"time"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
)

// DashboardKPI is one headline card. Delta is nil when there is no prior
// month to compare against.
type DashboardKPI struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Value     float64  `json:"value"`
	Delta     *float64 `json:"delta"`
	DeltaType string   `json:"delta_type"` // "percent" or "number"
	Subtext   string   `json:"subtext,omitempty"`
}

// LowStockItem is a SKU whose stock sits below its safety stock in the latest month.
type LowStockItem struct {
	SKU          string  `json:"sku"`
	CurrentStock float64 `json:"current_stock"`
	SafetyStock  float64 `json:"safety_stock"`
	Gap          float64 `json:"gap"`
}

// TopSeller is a SKU ranked by sales in the latest month.
type TopSeller struct {
	SKU   string  `json:"sku"`
	Sales float64 `json:"sales"`
}

// DashboardMeta describes how much data the summary was built from.
type DashboardMeta struct {
	SampledRows int  `json:"sampled_rows"`
	Truncated   bool `json:"truncated"`
}

// DashboardSummary aggregates the inventory dashboard for the latest month.
type DashboardSummary struct {
	GeneratedAt   time.Time               `json:"generated_at"`
	LatestMonth   *string                 `json:"latest_month"`
	PreviousMonth *string                 `json:"previous_month"`
	KPIs          []DashboardKPI          `json:"kpis"`
	StockStatus   replenishment.Breakdown `json:"stock_status"`
	LowStock      []LowStockItem          `json:"low_stock"`
	TopSellers    []TopSeller             `json:"top_sellers"`
	Meta          DashboardMeta           `json:"meta"`
}

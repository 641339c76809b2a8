package replenishment

import "math"

// StockStatus is the dashboard condition of a SKU. It is independent of the
// risk tier.
type StockStatus string

const (
	StatusLowStock    StockStatus = "low_stock"
	StatusOutOfStock  StockStatus = "out_of_stock"
	StatusOverStock   StockStatus = "over_stock"
	StatusNormalStock StockStatus = "normal_stock"
)

// StockStatuses lists the statuses in breakdown order.
var StockStatuses = []StockStatus{StatusLowStock, StatusOutOfStock, StatusOverStock, StatusNormalStock}

// StockPosition is the per-SKU input to ClassifyStockStatus. Optional
// thresholds are nil when not configured.
type StockPosition struct {
	SKU          string   `json:"sku"`
	CurrentStock float64  `json:"current_stock"`
	ReorderPoint *float64 `json:"reorder_point,omitempty"`
	SafetyStock  *float64 `json:"safety_stock,omitempty"`
	MaxStock     *float64 `json:"max_stock,omitempty"`
	TargetLevel  *float64 `json:"target_level,omitempty"`
}

// ClassifyStockStatus applies, in order: no stock is out of stock; stock at or
// below the reorder point (or safety stock) is low; stock above the max level
// (or target level) is over stock; anything else is normal.
func ClassifyStockStatus(p StockPosition) StockStatus {
	current := p.CurrentStock
	if math.IsNaN(current) || math.IsInf(current, 0) {
		current = 0
	}
	if current <= 0 {
		return StatusOutOfStock
	}

	if low, ok := firstThreshold(p.ReorderPoint, p.SafetyStock); ok && current <= low {
		return StatusLowStock
	}
	if high, ok := firstThreshold(p.MaxStock, p.TargetLevel); ok && current > high {
		return StatusOverStock
	}
	return StatusNormalStock
}

// Breakdown counts SKUs per status with one-decimal percentages.
type Breakdown struct {
	Basis       string                  `json:"basis"`
	TotalSKUs   int                     `json:"total_skus"`
	Counts      map[StockStatus]int     `json:"counts"`
	Percentages map[StockStatus]float64 `json:"percentages"`
}

// StockStatusBreakdown classifies every position and summarizes the result.
func StockStatusBreakdown(positions []StockPosition) Breakdown {
	b := Breakdown{
		Basis:       "% of SKUs",
		TotalSKUs:   len(positions),
		Counts:      make(map[StockStatus]int, len(StockStatuses)),
		Percentages: make(map[StockStatus]float64, len(StockStatuses)),
	}
	for _, s := range StockStatuses {
		b.Counts[s] = 0
		b.Percentages[s] = 0
	}

	for _, p := range positions {
		b.Counts[ClassifyStockStatus(p)]++
	}
	if b.TotalSKUs == 0 {
		return b
	}
	for _, s := range StockStatuses {
		b.Percentages[s] = math.Round(float64(b.Counts[s])/float64(b.TotalSKUs)*1000) / 10
	}
	return b
}

func firstThreshold(values ...*float64) (float64, bool) {
	for _, v := range values {
		if v != nil && *v > 0 && !math.IsInf(*v, 0) {
			return *v, true
		}
	}
	return 0, false
}

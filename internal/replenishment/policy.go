// Package replenishment turns a forecast and a stock position into reorder,
// stockout and risk signals.
package replenishment

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

const (
	MinLeadTimeMonths     = 1
	MaxLeadTimeMonths     = 12
	DefaultLeadTimeMonths = 1

	// stockoutWindow is how many trailing months feed the average monthly demand.
	stockoutWindow = 3

	// MaxStockoutMonths bounds the stockout projection. Stock lasting longer
	// than this reports no stockout.
	MaxStockoutMonths = 1200
)

// Inputs is everything Evaluate needs for one SKU. A nil stock or safety stock
// means the value is unknown; it is treated as zero and flagged in the Snapshot.
type Inputs struct {
	SKU            string
	CurrentStock   *float64
	SafetyStock    *float64
	Forecast       []forecast.ForecastPoint
	History        []forecast.DemandPoint
	LeadTimeMonths int
}

// Snapshot is the replenishment view of one SKU.
type Snapshot struct {
	SKU               string          `json:"sku"`
	CurrentStock      float64         `json:"current_stock"`
	CurrentStockKnown bool            `json:"current_stock_known"`
	SafetyStock       float64         `json:"safety_stock"`
	SafetyStockKnown  bool            `json:"safety_stock_known"`
	LeadTimeMonths    int             `json:"lead_time_months"`
	LeadTimeDemand    float64         `json:"lead_time_demand"`
	ReorderQuantity   float64         `json:"reorder_quantity"`
	StockoutMonth     *forecast.Month `json:"projected_stockout_month"`
	Risk              Risk            `json:"risk"`
}

// ClampLeadTime bounds a lead time to [MinLeadTimeMonths, MaxLeadTimeMonths].
func ClampLeadTime(months int) int {
	return max(MinLeadTimeMonths, min(MaxLeadTimeMonths, months))
}

// LeadTimeDemand sums the first leadTime forecast quantities (clamped to
// [1, 12]). A forecast shorter than the lead time contributes what it has.
func LeadTimeDemand(points []forecast.ForecastPoint, leadTime int) float64 {
	k := min(ClampLeadTime(leadTime), len(points))
	total := 0.0
	for _, p := range points[:k] {
		total += p.Quantity
	}
	return total
}

// ReorderQuantity is max(0, round(safety + leadDemand - current)).
func ReorderQuantity(safety, leadDemand, current float64) float64 {
	qty := math.Round(safety + leadDemand - current)
	if qty <= 0 || math.IsNaN(qty) {
		return 0
	}
	return qty
}

// ProjectedStockout estimates the month stock runs out by dividing current
// stock by the mean of the last three actual demands and counting forward from
// the last history month. It reports false when there is no history, the
// recent average is not positive, or the projection falls more than
// MaxStockoutMonths away.
func ProjectedStockout(history []forecast.DemandPoint, current float64) (forecast.Month, bool) {
	last, ok := forecast.LastMonth(history)
	if !ok {
		return forecast.Month{}, false
	}

	series := forecast.Values(history)
	tail := series[max(0, len(series)-stockoutWindow):]
	avg := stat.Mean(tail, nil)
	if !(avg > 0) {
		return forecast.Month{}, false
	}

	monthsLeft := math.Floor(current / avg)
	if math.IsNaN(monthsLeft) || math.Abs(monthsLeft) > MaxStockoutMonths {
		return forecast.Month{}, false
	}
	return last.AddMonths(int(monthsLeft)), true
}

// Evaluate composes lead-time demand, reorder quantity, projected stockout and
// risk for one SKU.
func Evaluate(in Inputs) Snapshot {
	current, currentKnown := valueOrZero(in.CurrentStock)
	safety, safetyKnown := valueOrZero(in.SafetyStock)
	leadTime := ClampLeadTime(in.LeadTimeMonths)
	leadDemand := LeadTimeDemand(in.Forecast, leadTime)

	snap := Snapshot{
		SKU:               in.SKU,
		CurrentStock:      current,
		CurrentStockKnown: currentKnown,
		SafetyStock:       safety,
		SafetyStockKnown:  safetyKnown,
		LeadTimeMonths:    leadTime,
		LeadTimeDemand:    leadDemand,
		ReorderQuantity:   ReorderQuantity(safety, leadDemand, current),
		Risk:              ClassifyRisk(current, safety),
	}
	if month, ok := ProjectedStockout(in.History, current); ok {
		snap.StockoutMonth = &month
	}
	return snap
}

func valueOrZero(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

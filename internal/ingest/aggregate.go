package ingest

import (
	"sort"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

// Demand sums MonthSales per month and returns the series in ascending order.
func Demand(records []domain.InventoryRecord) []forecast.DemandPoint {
	totals := make(map[forecast.Month]float64)
	for _, r := range records {
		totals[forecast.MonthOf(r.Month)] += r.MonthSales
	}

	out := make([]forecast.DemandPoint, 0, len(totals))
	for m, q := range totals {
		out = append(out, forecast.DemandPoint{Month: m, Quantity: q})
	}
	forecast.SortHistory(out)
	return out
}

// DemandBySKU groups Demand per SKU.
func DemandBySKU(records []domain.InventoryRecord) map[string][]forecast.DemandPoint {
	grouped := make(map[string][]domain.InventoryRecord)
	for _, r := range records {
		grouped[r.SKU] = append(grouped[r.SKU], r)
	}

	out := make(map[string][]forecast.DemandPoint, len(grouped))
	for sku, rows := range grouped {
		out[sku] = Demand(rows)
	}
	return out
}

// CurrentStock sums MonthEndStock over the rows of the latest month. It
// reports false when there are no records.
func CurrentStock(records []domain.InventoryRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}

	latest := forecast.MonthOf(records[0].Month)
	for _, r := range records[1:] {
		if m := forecast.MonthOf(r.Month); m.After(latest) {
			latest = m
		}
	}

	total := 0.0
	for _, r := range records {
		if forecast.MonthOf(r.Month).Equal(latest) {
			total += r.MonthEndStock
		}
	}
	return total, true
}

// SafetyStock returns the largest recorded safety stock. It reports false
// when no record carries one.
func SafetyStock(records []domain.InventoryRecord) (float64, bool) {
	best, found := 0.0, false
	for _, r := range records {
		if r.SafetyStock == nil {
			continue
		}
		if !found || *r.SafetyStock > best {
			best = *r.SafetyStock
			found = true
		}
	}
	return best, found
}

// SKUs lists the distinct SKUs in ascending order.
func SKUs(records []domain.InventoryRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.SKU]; ok {
			continue
		}
		seen[r.SKU] = struct{}{}
		out = append(out, r.SKU)
	}
	sort.Strings(out)
	return out
}

// FilterSKU keeps the records of one SKU.
func FilterSKU(records []domain.InventoryRecord, sku string) []domain.InventoryRecord {
	var out []domain.InventoryRecord
	for _, r := range records {
		if r.SKU == sku {
			out = append(out, r)
		}
	}
	return out
}

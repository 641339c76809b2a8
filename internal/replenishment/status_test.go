package replenishment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStockStatus(t *testing.T) {
	tests := []struct {
		name     string
		position StockPosition
		expected StockStatus
	}{
		{"empty", StockPosition{CurrentStock: 0, ReorderPoint: ptr(10)}, StatusOutOfStock},
		{"negative", StockPosition{CurrentStock: -3}, StatusOutOfStock},
		{"at reorder point", StockPosition{CurrentStock: 10, ReorderPoint: ptr(10)}, StatusLowStock},
		{"falls back to safety stock", StockPosition{CurrentStock: 8, ReorderPoint: ptr(0), SafetyStock: ptr(9)}, StatusLowStock},
		{"above max", StockPosition{CurrentStock: 101, MaxStock: ptr(100)}, StatusOverStock},
		{"falls back to target level", StockPosition{CurrentStock: 60, TargetLevel: ptr(50)}, StatusOverStock},
		{"between thresholds", StockPosition{CurrentStock: 50, ReorderPoint: ptr(10), MaxStock: ptr(100)}, StatusNormalStock},
		{"no thresholds", StockPosition{CurrentStock: 5}, StatusNormalStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStockStatus(tt.position))
		})
	}
}

func TestStockStatusBreakdown(t *testing.T) {
	got := StockStatusBreakdown([]StockPosition{
		{CurrentStock: 0},
		{CurrentStock: 5, SafetyStock: ptr(10)},
		{CurrentStock: 50},
	})

	assert.Equal(t, 3, got.TotalSKUs)
	assert.Equal(t, 1, got.Counts[StatusOutOfStock])
	assert.Equal(t, 1, got.Counts[StatusLowStock])
	assert.Equal(t, 0, got.Counts[StatusOverStock])
	assert.Equal(t, 33.3, got.Percentages[StatusNormalStock])
	assert.Equal(t, 0.0, got.Percentages[StatusOverStock])

	empty := StockStatusBreakdown(nil)
	assert.Equal(t, 0, empty.TotalSKUs)
	assert.Len(t, empty.Counts, 4)
	assert.Equal(t, 0.0, empty.Percentages[StatusLowStock])
}

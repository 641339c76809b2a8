package replenishment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		safety     float64
		tier       RiskTier
		label      string
		suggestion string
	}{
		{"well above safety", 120, 100, RiskHealthy, "LOW", "Stock is sufficient, maintain current level"},
		{"just below healthy", 119, 100, RiskWatch, "MED", "Stock is normal, monitor reorder timing"},
		{"at safety", 100, 100, RiskWatch, "MED", "Stock is normal, monitor reorder timing"},
		{"half of safety", 50, 100, RiskWatch, "MED", "Stock is low, consider reordering soon"},
		{"below half", 49, 100, RiskAtRisk, "HIGH", "Stock is critically low, reorder immediately"},
		{"no safety stock", 0, 0, RiskHealthy, "LOW", "Stock is sufficient, maintain current level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRisk(tt.current, tt.safety)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.label, got.Label)
			assert.Equal(t, tt.suggestion, got.Suggestion)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestClassifyRisk_MonotoneInStock(t *testing.T) {
	for _, safety := range []float64{0, 1, 37, 100, 2500} {
		prev := ClassifyRisk(0, safety).Tier.Severity()
		for current := 0.0; current <= safety*2+10; current += 0.5 {
			sev := ClassifyRisk(current, safety).Tier.Severity()
			assert.LessOrEqual(t, sev, prev, "safety=%v current=%v", safety, current)
			prev = sev
		}
	}
}

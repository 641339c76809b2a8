package forecast

import (
	"math"
	"testing"
)

// mustMonth parses a month literal known to be valid.
func mustMonth(value string) Month {
	m, err := ParseMonth(value)
	if err != nil {
		panic(err)
	}
	return m
}

// monthlyHistory builds consecutive monthly points starting at start.
func monthlyHistory(start string, values ...float64) []DemandPoint {
	first := mustMonth(start)
	out := make([]DemandPoint, len(values))
	for i, v := range values {
		out[i] = DemandPoint{Month: first.AddMonths(i), Quantity: v}
	}
	return out
}

// seasonalSeries returns n points of a level-100 series with a +/-30 yearly swing
// and the given per-month slope.
func seasonalSeries(n int, slope float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + slope*float64(i) + 30*math.Sin(2*math.Pi*float64(i%SeasonLength)/SeasonLength)
	}
	return out
}

func assertAllFinite(t *testing.T, values []float64) {
	t.Helper()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("value %d is not finite: %v", i, v)
		}
	}
}

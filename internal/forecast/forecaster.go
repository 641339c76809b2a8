package forecast

import (
	"math"
	"sort"
)

const (
	MinHorizon     = 1
	MaxHorizon     = 24
	DefaultHorizon = 6
)

// DemandPoint is the demand observed for one SKU in one month.
type DemandPoint struct {
	Month    Month   `json:"month"`
	Quantity float64 `json:"quantity"`
}

// ForecastPoint is a forecasted whole-unit quantity for one future month.
type ForecastPoint struct {
	Month    Month   `json:"month"`
	Quantity float64 `json:"quantity"`
}

// Result is the output of Forecast.
type Result struct {
	Requested   ModelKey        `json:"requested_model"`
	Model       ModelKey        `json:"model"`
	Substituted bool            `json:"substituted"`
	Horizon     int             `json:"horizon"`
	Warning     string          `json:"warning,omitempty"`
	Points      []ForecastPoint `json:"points"`
}

// ClampHorizon bounds a requested horizon to [MinHorizon, MaxHorizon].
func ClampHorizon(horizon int) int {
	return clampInt(horizon, MinHorizon, MaxHorizon)
}

// Forecast runs model over history and dates the output. The horizon is
// clamped, every quantity is rounded to whole units and floored at zero, and an
// unusable model is replaced by Naive rather than failing. An empty history has
// no anchor month and yields no points.
func Forecast(history []DemandPoint, model ModelKey, horizon int) Result {
	h := ClampHorizon(horizon)
	series := Values(history)
	applicability := Applicability(len(series))

	result := Result{
		Requested: model,
		Model:     model,
		Horizon:   h,
		Points:    []ForecastPoint{},
	}
	if !applicability.Usable(model) {
		result.Model = ModelNaive
		result.Substituted = true
	}
	result.Warning = applicability[result.Model].Warning

	last, ok := LastMonth(history)
	if !ok {
		return result
	}

	preds := Predict(result.Model, series, h)
	result.Points = make([]ForecastPoint, len(preds))
	for i, v := range preds {
		result.Points[i] = ForecastPoint{
			Month:    last.AddMonths(i + 1),
			Quantity: normalizeQuantity(v),
		}
	}
	return result
}

// Values extracts the quantities of history in order.
func Values(history []DemandPoint) []float64 {
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = p.Quantity
	}
	return out
}

// LastMonth returns the month of the final history point.
func LastMonth(history []DemandPoint) (Month, bool) {
	if len(history) == 0 {
		return Month{}, false
	}
	return history[len(history)-1].Month, true
}

// SortHistory orders points chronologically in place.
func SortHistory(history []DemandPoint) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Month.Before(history[j].Month)
	})
}

// Quantities extracts the quantities of a forecast in order.
func Quantities(points []ForecastPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Quantity
	}
	return out
}

func normalizeQuantity(v float64) float64 {
	v = finiteOrZero(v)
	if v <= 0 {
		return 0
	}
	return math.Round(v)
}

// Package forecast implements the monthly demand models, their applicability
// rules and the orchestration that turns a demand history into dated forecasts.
package forecast

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ModelKey identifies a forecasting model.
type ModelKey string

const (
	ModelNaive         ModelKey = "NAIVE"
	ModelSeasonalNaive ModelKey = "SNAIVE"
	ModelSMA           ModelKey = "SMA"
	ModelSES           ModelKey = "SES"
	ModelHolt          ModelKey = "HOLT"
	ModelHoltWinters   ModelKey = "HW"
)

// AllModels lists every model in display order.
var AllModels = []ModelKey{
	ModelNaive,
	ModelSeasonalNaive,
	ModelSMA,
	ModelSES,
	ModelHolt,
	ModelHoltWinters,
}

var modelAliases = map[string]ModelKey{
	"naive":          ModelNaive,
	"snaive":         ModelSeasonalNaive,
	"seasonal_naive": ModelSeasonalNaive,
	"sma":            ModelSMA,
	"moving_average": ModelSMA,
	"ses":            ModelSES,
	"exponential":    ModelSES,
	"holt":           ModelHolt,
	"hw":             ModelHoltWinters,
	"holt_winters":   ModelHoltWinters,
}

var modelLabels = map[ModelKey]string{
	ModelNaive:         "Naive",
	ModelSeasonalNaive: "Seasonal Naive",
	ModelSMA:           "Simple Moving Average",
	ModelSES:           "Simple Exponential Smoothing",
	ModelHolt:          "Holt (linear trend)",
	ModelHoltWinters:   "Holt-Winters (additive)",
}

// ParseModelKey resolves a model key or one of its aliases (case-insensitive).
func ParseModelKey(value string) (ModelKey, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	key, ok := modelAliases[normalized]
	return key, ok
}

// Label returns the human-readable model name.
func (k ModelKey) Label() string {
	if label, ok := modelLabels[k]; ok {
		return label
	}
	return string(k)
}

// Valid reports whether k is one of the known models.
func (k ModelKey) Valid() bool {
	_, ok := modelLabels[k]
	return ok
}

// Default hyperparameters for monthly data.
const (
	SeasonLength = 12

	DefaultSMAWindow = 3
	DefaultSESAlpha  = 0.3
	DefaultHoltAlpha = 0.3
	DefaultHoltBeta  = 0.2
	DefaultHWAlpha   = 0.3
	DefaultHWBeta    = 0.15
	DefaultHWGamma   = 0.2

	minSmoothing = 0.05
	maxSmoothing = 0.95
)

// Predict runs model over series with the default hyperparameters. The result
// has exactly horizon entries and never contains NaN or Inf. Unknown models
// fall back to Naive.
func Predict(model ModelKey, series []float64, horizon int) []float64 {
	var out []float64
	switch model {
	case ModelSeasonalNaive:
		out = SeasonalNaive(series, horizon, SeasonLength)
	case ModelSMA:
		out = SMA(series, horizon, DefaultSMAWindow)
	case ModelSES:
		out = SES(series, horizon, DefaultSESAlpha)
	case ModelHolt:
		out = Holt(series, horizon, DefaultHoltAlpha, DefaultHoltBeta)
	case ModelHoltWinters:
		out = HoltWinters(series, horizon, SeasonLength, DefaultHWAlpha, DefaultHWBeta, DefaultHWGamma)
	default:
		out = Naive(series, horizon)
	}
	for i, v := range out {
		out[i] = finiteOrZero(v)
	}
	return out
}

// Naive repeats the last observation. An empty series forecasts zero.
func Naive(series []float64, horizon int) []float64 {
	return flat(lastOr(series, 0), horizon)
}

// SeasonalNaive repeats the value observed one season earlier, cycling through
// the last full season when the horizon is longer than a season. Positions that
// fall before the start of the series use the last observation instead.
func SeasonalNaive(series []float64, horizon, season int) []float64 {
	if horizon < 1 {
		return []float64{}
	}
	if season < 1 {
		season = SeasonLength
	}

	n := len(series)
	last := lastOr(series, 0)
	out := make([]float64, horizon)
	for i := range out {
		idx := n - season + i%season
		if idx >= 0 && idx < n {
			out[i] = series[idx]
		} else {
			out[i] = last
		}
	}
	return out
}

// SMA forecasts the mean of the trailing window for every step. The window is
// clamped to [2, len(series)] and does not slide over its own forecasts.
func SMA(series []float64, horizon, window int) []float64 {
	w := clampInt(window, 2, max(2, len(series)))
	tail := series[max(0, len(series)-w):]

	avg := 0.0
	if len(tail) > 0 {
		avg = floats.Sum(tail) / float64(len(tail))
	}
	return flat(avg, horizon)
}

// SES forecasts the final smoothed level, seeded with the first observation.
func SES(series []float64, horizon int, alpha float64) []float64 {
	a := clampSmoothing(alpha)

	level := firstOr(series, 0)
	for i := 1; i < len(series); i++ {
		level = a*series[i] + (1-a)*level
	}
	return flat(level, horizon)
}

// Holt forecasts level + h*trend using double exponential smoothing. The trend
// is seeded with the first difference, or zero for a single observation.
func Holt(series []float64, horizon int, alpha, beta float64) []float64 {
	a := clampSmoothing(alpha)
	b := clampSmoothing(beta)

	level := firstOr(series, 0)
	trend := 0.0
	if len(series) > 1 {
		trend = series[1] - level
	}

	for i := 1; i < len(series); i++ {
		prevLevel := level
		level = a*series[i] + (1-a)*(level+trend)
		trend = b*(level-prevLevel) + (1-b)*trend
	}

	if horizon < 1 {
		return []float64{}
	}
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = level + float64(h)*trend
	}
	return out
}

// HoltWinters forecasts with additive triple exponential smoothing. Seasonal
// offsets start as the first season's deviations from its mean and are then
// updated in place at slot t mod season.
func HoltWinters(series []float64, horizon, season int, alpha, beta, gamma float64) []float64 {
	if season < 1 {
		season = SeasonLength
	}
	a := clampSmoothing(alpha)
	b := clampSmoothing(beta)
	g := clampSmoothing(gamma)

	n := len(series)
	firstSeason := series[:min(season, n)]
	seasonAvg := 0.0
	if len(firstSeason) > 0 {
		seasonAvg = floats.Sum(firstSeason) / float64(len(firstSeason))
	}

	seasonal := make([]float64, season)
	for i := range seasonal {
		v := seasonAvg
		if i < len(firstSeason) {
			v = firstSeason[i]
		}
		seasonal[i] = v - seasonAvg
	}

	level := firstOr(series, 0)
	trend := 0.0
	if n > 1 {
		trend = series[1] - level
	}

	for t := 0; t < n; t++ {
		y := series[t]
		slot := t % season
		si := seasonal[slot]

		prevLevel, prevTrend := level, trend
		level = a*(y-si) + (1-a)*(prevLevel+prevTrend)
		trend = b*(level-prevLevel) + (1-b)*prevTrend
		seasonal[slot] = g*(y-level) + (1-g)*si
	}

	if horizon < 1 {
		return []float64{}
	}
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = level + float64(h)*trend + seasonal[(n+h-1)%season]
	}
	return out
}

func flat(v float64, horizon int) []float64 {
	if horizon < 1 {
		return []float64{}
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = v
	}
	return out
}

func firstOr(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[0]
}

func lastOr(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[len(series)-1]
}

func clampSmoothing(v float64) float64 {
	if math.IsNaN(v) {
		return minSmoothing
	}
	return math.Max(minSmoothing, math.Min(maxSmoothing, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

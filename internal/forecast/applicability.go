package forecast

import "fmt"

// RecommendedSeasonalPoints is the history length below which seasonal models
// still run but carry a stability warning.
const RecommendedSeasonalPoints = 2 * SeasonLength

var minPoints = map[ModelKey]int{
	ModelNaive:         1,
	ModelSMA:           2,
	ModelSES:           2,
	ModelHolt:          3,
	ModelSeasonalNaive: SeasonLength,
	ModelHoltWinters:   SeasonLength,
}

var unusableReasons = map[ModelKey]string{
	ModelSMA:           "requires at least 2 monthly points",
	ModelSES:           "requires at least 2 monthly points",
	ModelHolt:          "requires at least 3 monthly points to estimate a trend",
	ModelSeasonalNaive: "requires at least 12 monthly points to reuse last year's month",
	ModelHoltWinters:   "requires at least 12 monthly points (season length is 12)",
}

// primaryFallbackOrder is walked when the selected primary model is unusable.
var primaryFallbackOrder = []ModelKey{ModelHolt, ModelSES, ModelSMA, ModelNaive}

// ModelApplicability tells whether a model can run on a series of a given length.
type ModelApplicability struct {
	Usable  bool   `json:"usable"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// ApplicabilityMap holds the applicability of every model for one series length.
type ApplicabilityMap map[ModelKey]ModelApplicability

// MinPoints returns the minimum series length a model needs. Unknown models
// report -1.
func MinPoints(model ModelKey) int {
	if n, ok := minPoints[model]; ok {
		return n
	}
	return -1
}

// Applicability evaluates every model against a series length. Naive is always
// usable because it forecasts zero on an empty series.
func Applicability(seriesLen int) ApplicabilityMap {
	if seriesLen < 0 {
		seriesLen = 0
	}

	out := make(ApplicabilityMap, len(AllModels))
	for _, model := range AllModels {
		info := ModelApplicability{Usable: seriesLen >= minPoints[model]}
		if model == ModelNaive {
			info.Usable = true
		}
		if !info.Usable {
			info.Reason = unusableReasons[model]
		}
		if model == ModelHoltWinters && info.Usable && seriesLen < RecommendedSeasonalPoints {
			info.Warning = fmt.Sprintf("at least %d monthly points recommended; seasonality may be unstable", RecommendedSeasonalPoints)
		}
		out[model] = info
	}
	return out
}

// Usable reports whether model can run. Unknown models are never usable.
func (a ApplicabilityMap) Usable(model ModelKey) bool {
	return a[model].Usable
}

// UsableModels returns the usable models in display order.
func (a ApplicabilityMap) UsableModels() []ModelKey {
	out := make([]ModelKey, 0, len(AllModels))
	for _, model := range AllModels {
		if a.Usable(model) {
			out = append(out, model)
		}
	}
	return out
}

// Unavailable lists "MODEL: reason" for every unusable model.
func (a ApplicabilityMap) Unavailable() []string {
	var out []string
	for _, model := range AllModels {
		if info := a[model]; !info.Usable && info.Reason != "" {
			out = append(out, fmt.Sprintf("%s: %s", model, info.Reason))
		}
	}
	return out
}

// Warnings lists "MODEL: warning" for every usable model with a warning.
func (a ApplicabilityMap) Warnings() []string {
	var out []string
	for _, model := range AllModels {
		if info := a[model]; info.Usable && info.Warning != "" {
			out = append(out, fmt.Sprintf("%s: %s", model, info.Warning))
		}
	}
	return out
}

// SelectPrimaryModel keeps preferred when it can run on seriesLen points and
// otherwise falls back through Holt, SES, SMA and Naive.
func SelectPrimaryModel(preferred ModelKey, seriesLen int) ModelKey {
	applicability := Applicability(seriesLen)
	if applicability.Usable(preferred) {
		return preferred
	}
	for _, model := range primaryFallbackOrder {
		if applicability.Usable(model) {
			return model
		}
	}
	return ModelNaive
}

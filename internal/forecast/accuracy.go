package forecast

import "math"

// MAPE is the mean absolute percentage error over the overlapping prefix of
// actual and predicted, skipping zero actuals. Returns 0 when nothing counts.
func MAPE(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))
	sum, count := 0.0, 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) * 100
}

// Bias is the mean of predicted - actual; positive means over-forecasting.
func Bias(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += predicted[i] - actual[i]
	}
	return sum / float64(n)
}

// MAE is the mean absolute error over the overlapping prefix.
func MAE(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(n)
}

// BacktestResult scores a model on the last Holdout points of a series.
type BacktestResult struct {
	Model   ModelKey `json:"model"`
	Holdout int      `json:"holdout"`
	MAPE    float64  `json:"mape"`
	Bias    float64  `json:"bias"`
	MAE     float64  `json:"mae"`
}

// Backtest fits model on everything except the last holdout points and
// compares its whole-unit forecasts against them. It reports false when the
// training prefix is too short for the model.
func Backtest(series []float64, model ModelKey, holdout int) (BacktestResult, bool) {
	if holdout < 1 || holdout >= len(series) {
		return BacktestResult{}, false
	}
	train := series[:len(series)-holdout]
	if !Applicability(len(train)).Usable(model) || len(train) == 0 {
		return BacktestResult{}, false
	}

	actual := series[len(series)-holdout:]
	predicted := Predict(model, train, holdout)
	for i, v := range predicted {
		predicted[i] = normalizeQuantity(v)
	}

	return BacktestResult{
		Model:   model,
		Holdout: holdout,
		MAPE:    MAPE(actual, predicted),
		Bias:    Bias(actual, predicted),
		MAE:     MAE(actual, predicted),
	}, true
}

// BacktestAll backtests every model that can run on the training prefix.
func BacktestAll(series []float64, holdout int) []BacktestResult {
	var out []BacktestResult
	for _, model := range AllModels {
		if res, ok := Backtest(series, model, holdout); ok {
			out = append(out, res)
		}
	}
	return out
}

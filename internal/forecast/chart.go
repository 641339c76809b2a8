package forecast

import (
	"encoding/json"
	"sort"
	"strings"
)

// ChartRow is one month of the combined actual/forecast table.
type ChartRow struct {
	Month  Month
	Actual *float64
	Values map[ModelKey]float64
}

// MarshalJSON flattens the row into {"t": "...", "actual": n, "HOLT": n, ...},
// the shape the charting front end consumes.
func (r ChartRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Values)+2)
	out["t"] = r.Month.String()
	if r.Actual != nil {
		out["actual"] = *r.Actual
	}
	for model, v := range r.Values {
		out[string(model)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened shape written by MarshalJSON. Keys that
// are not known model keys are ignored.
func (r *ChartRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	row := ChartRow{Values: map[ModelKey]float64{}}
	for key, value := range raw {
		switch key {
		case "t":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return err
			}
			m, err := ParseMonth(s)
			if err != nil {
				return err
			}
			row.Month = m
		case "actual":
			var v float64
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			row.Actual = &v
		default:
			model := ModelKey(key)
			if !model.Valid() {
				continue
			}
			var v float64
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			row.Values[model] = v
		}
	}
	*r = row
	return nil
}

// Chart merges history with the forecast of every usable model.
type Chart struct {
	Rows          []ChartRow       `json:"rows"`
	ForecastStart *Month           `json:"forecast_start"`
	Horizon       int              `json:"horizon"`
	Applicability ApplicabilityMap `json:"applicability"`
}

// BuildChart produces month-keyed rows, strictly ascending with no duplicate
// months. History rows carry Actual; forecast months carry one value per usable
// model. If a forecast month coincides with a history month both live in the
// same row.
func BuildChart(history []DemandPoint, horizon int) Chart {
	h := ClampHorizon(horizon)
	applicability := Applicability(len(history))
	chart := Chart{
		Rows:          []ChartRow{},
		Horizon:       h,
		Applicability: applicability,
	}

	last, ok := LastMonth(history)
	if !ok {
		return chart
	}
	start := last.AddMonths(1)
	chart.ForecastStart = &start

	byMonth := make(map[Month]*ChartRow)
	rowFor := func(m Month) *ChartRow {
		if row, ok := byMonth[m]; ok {
			return row
		}
		row := &ChartRow{Month: m, Values: map[ModelKey]float64{}}
		byMonth[m] = row
		return row
	}

	for _, p := range history {
		row := rowFor(p.Month)
		actual := p.Quantity
		if row.Actual != nil {
			actual += *row.Actual
		}
		row.Actual = &actual
	}

	for _, model := range applicability.UsableModels() {
		for _, p := range Forecast(history, model, h).Points {
			rowFor(p.Month).Values[model] = p.Quantity
		}
	}

	months := make([]Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	chart.Rows = make([]ChartRow, len(months))
	for i, m := range months {
		chart.Rows[i] = *byMonth[m]
	}
	return chart
}

// Window keeps the last lookback historical rows followed by every future row.
// A lookback of zero or less keeps everything. The chart itself is not modified.
func (c Chart) Window(lookback int) []ChartRow {
	if lookback <= 0 {
		return c.Rows
	}

	var hist, future []ChartRow
	for _, row := range c.Rows {
		if row.Actual != nil {
			hist = append(hist, row)
		} else {
			future = append(future, row)
		}
	}
	if len(hist) > lookback {
		hist = hist[len(hist)-lookback:]
	}

	out := make([]ChartRow, 0, len(hist)+len(future))
	out = append(out, hist...)
	return append(out, future...)
}

// Range is a display lookback preset.
type Range string

const (
	Range6M  Range = "6M"
	Range12M Range = "12M"
	Range18M Range = "18M"
	Range24M Range = "24M"
	RangeAll Range = "ALL"
)

var rangeMonths = map[Range]int{
	Range6M:  6,
	Range12M: 12,
	Range18M: 18,
	Range24M: 24,
	RangeAll: 0,
}

// ParseRange resolves a lookback preset (case-insensitive).
func ParseRange(value string) (Range, bool) {
	r := Range(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := rangeMonths[r]
	return r, ok
}

// Months returns the lookback length; zero means all history.
func (r Range) Months() int {
	return rangeMonths[r]
}

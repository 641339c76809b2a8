package domain

import "strings"

// RowStatus is the coarse stock label shown next to each uploaded row.
type RowStatus string

const (
	RowStatusNormal RowStatus = "Normal"
	RowStatusLow    RowStatus = "Low"
	RowStatusOut    RowStatus = "Out"
)

var rowStatusCodes = map[string]RowStatus{
	"normal": RowStatusNormal,
	"low":    RowStatusLow,
	"out":    RowStatusOut,
}

// ClassifyRow labels a row by its month-end stock against its safety stock.
func ClassifyRow(r InventoryRecord) RowStatus {
	if r.MonthEndStock <= 0 {
		return RowStatusOut
	}
	if r.SafetyStock != nil && r.MonthEndStock < *r.SafetyStock {
		return RowStatusLow
	}

	return RowStatusNormal
}

// ParseRowStatus returns the status for a label (case-insensitive).
func ParseRowStatus(label string) (RowStatus, bool) {
	status, ok := rowStatusCodes[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// LabeledRow is a stored row with its stock label.
type LabeledRow struct {
	InventoryRecord
	Status RowStatus `json:"status"`
}

// LabelRows labels every record, keeping their order.
func LabelRows(records []InventoryRecord) []LabeledRow {
	out := make([]LabeledRow, len(records))
	for i, r := range records {
		out[i] = LabeledRow{InventoryRecord: r, Status: ClassifyRow(r)}
	}
	return out
}

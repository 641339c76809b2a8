package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRow(t *testing.T) {
	safety := 10.0

	tests := []struct {
		name     string
		record   InventoryRecord
		expected RowStatus
	}{
		{"no stock", InventoryRecord{MonthEndStock: 0, SafetyStock: &safety}, RowStatusOut},
		{"below safety", InventoryRecord{MonthEndStock: 9, SafetyStock: &safety}, RowStatusLow},
		{"at safety", InventoryRecord{MonthEndStock: 10, SafetyStock: &safety}, RowStatusNormal},
		{"unknown safety", InventoryRecord{MonthEndStock: 1}, RowStatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRow(tt.record))
		})
	}
}

func TestParseRowStatus(t *testing.T) {
	status, ok := ParseRowStatus(" LOW ")
	assert.True(t, ok)
	assert.Equal(t, RowStatusLow, status)

	_, ok = ParseRowStatus("critical")
	assert.False(t, ok)
}

func TestLabelRows(t *testing.T) {
	safety := 5.0
	rows := LabelRows([]InventoryRecord{
		{SKU: "A", MonthEndStock: 3, SafetyStock: &safety},
		{SKU: "B", MonthEndStock: 0},
	})

	assert.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].SKU)
	assert.Equal(t, RowStatusLow, rows[0].Status)
	assert.Equal(t, RowStatusOut, rows[1].Status)
	assert.Empty(t, LabelRows(nil))
}

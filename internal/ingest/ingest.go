// Package ingest reads monthly inventory spreadsheets (CSV or XLSX) into
// inventory records and aggregates them into demand series.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

var (
	ErrNoRows            = errors.New("no usable inventory rows")
	ErrMissingColumn     = errors.New("required column not found")
	ErrHeaderNotFound    = errors.New("header row not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Options control how rows are dated.
type Options struct {
	// FileName is used to pick the reader and as a month hint ("stock 2025-03.xlsx").
	FileName string
	// DefaultMonth dates rows that carry no month and come from an undated file.
	// Zero means the current month.
	DefaultMonth forecast.Month
}

// Format is a supported spreadsheet format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the reader from the file extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// Parse reads a spreadsheet and converts its first sheet into records.
func Parse(r io.Reader, opts Options) ([]domain.InventoryRecord, error) {
	format, err := DetectFormat(opts.FileName)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = ReadCSVRows(r)
	case FormatXLSX:
		rows, err = ReadXLSXRows(r)
	}
	if err != nil {
		return nil, err
	}

	return ParseRows(rows, opts)
}

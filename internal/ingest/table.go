package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

// headerScanRows bounds how far down the sheet the header row is searched for.
const headerScanRows = 30

type column int

const (
	colSKU column = iota
	colBatch
	colCategory
	colLastStock
	colIn
	colOut
	colSales
	colEndStock
	colSafety
	colNote
	colRemark
	colTime
	numColumns
)

// columnSpec matches a header cell. Exact keywords are compared with the whole
// normalized cell; contains keywords are tried as substrings in order.
type columnSpec struct {
	exact    []string
	contains []string
}

var columnSpecs = [numColumns]columnSpec{
	colSKU:       {exact: []string{"sku", "model", "型号", "型", "skucode", "product"}, contains: []string{"型号", "sku", "model"}},
	colBatch:     {exact: []string{"batch", "批号", "lot"}, contains: []string{"批号", "batch"}},
	colCategory:  {exact: []string{"category", "类别"}, contains: []string{"类别", "category"}},
	colLastStock: {exact: []string{"laststock", "lastmonthstock", "openingstock"}, contains: []string{"上月结存", "lastbalance", "lastmonthstock"}},
	colIn:        {exact: []string{"in", "monthin", "inbound"}, contains: []string{"本月入库", "inbound", "monthin"}},
	colOut:       {exact: []string{"out", "monthout", "outbound"}, contains: []string{"本月领用", "outbound", "monthout"}},
	colSales:     {exact: []string{"sales", "qty", "quantity", "demand", "monthsales"}, contains: []string{"本月销售", "monthsales", "sales"}},
	colEndStock:  {exact: []string{"stock", "currentstock", "endstock", "monthendstock", "closingstock"}, contains: []string{"本月结存", "currentbalance", "monthendstock"}},
	colSafety:    {exact: []string{"safetystock", "ss"}, contains: []string{"安全库存", "safetystock"}},
	colNote:      {contains: []string{"notevalue", "备注值"}},
	colRemark:    {exact: []string{"remark", "备注", "说明", "note"}, contains: []string{"remark", "说明"}},
	colTime:      {exact: []string{"month", "time", "date", "period", "时间", "月份"}, contains: []string{"月份", "时间"}},
}

var (
	modelTokens   = []string{"型号", "型", "model", "sku"}
	contextTokens = []string{"批号", "batch", "本月入库", "入库", "time", "时间", "月份", "month", "结存", "sales", "stock"}

	// scoredColumns decide between a one-row and a two-row header.
	scoredColumns = []column{colSKU, colBatch, colLastStock, colIn, colOut, colSales, colEndStock}
)

type header struct {
	index     [numColumns]int
	dataStart int
}

func (h header) has(c column) bool { return h.index[c] >= 0 }

// ParseRows converts raw sheet rows into inventory records. It locates the
// header (one or two rows), maps columns by keyword, forward-fills SKUs on
// continuation rows and drops subtotal and title rows. A row is dated by its
// own month cell, then by the file name, then by opts.DefaultMonth.
func ParseRows(rows [][]string, opts Options) ([]domain.InventoryRecord, error) {
	h, err := locateHeader(rows)
	if err != nil {
		return nil, err
	}
	if !h.has(colSKU) {
		return nil, fmt.Errorf("%w: sku", ErrMissingColumn)
	}
	if !h.has(colSales) && !h.has(colEndStock) {
		return nil, fmt.Errorf("%w: sales or month-end stock", ErrMissingColumn)
	}

	fallback := opts.DefaultMonth
	if m, ok := MonthFromFileName(opts.FileName); ok {
		fallback = m
	}
	if fallback.IsZero() {
		fallback = forecast.MonthOf(time.Now())
	}

	var (
		records      []domain.InventoryRecord
		lastSKU      string
		lastCategory string
	)
	for _, row := range rows[h.dataStart:] {
		if isBlank(row) {
			continue
		}
		cell := func(c column) string {
			idx := h.index[c]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		sku := cell(colSKU)
		hasData := cell(colBatch) != "" || cell(colEndStock) != ""
		switch {
		case sku != "":
			lastSKU = sku
		case hasData && lastSKU != "":
			sku = lastSKU
		}

		category := cell(colCategory)
		switch {
		case category != "":
			lastCategory = category
		case hasData:
			category = lastCategory
		}

		sku = strings.Join(strings.Fields(sku), "")
		if !UsableSKU(sku) {
			continue
		}

		month, ok := ParseMonthValue(cell(colTime))
		if !ok {
			month = fallback
		}

		endStock := ParseNumber(cell(colEndStock))
		rec := domain.InventoryRecord{
			Month:          month.Time(),
			SKU:            sku,
			Batch:          nullableText(cell(colBatch)),
			Category:       category,
			LastMonthStock: ParseNumber(cell(colLastStock)),
			MonthIn:        ParseNumber(cell(colIn)),
			MonthOut:       ParseNumber(cell(colOut)),
			MonthSales:     ParseNumber(cell(colSales)),
			MonthEndStock:  endStock,
			NoteValue:      endStock,
			Remark:         nullableText(cell(colRemark)),
		}
		if h.has(colNote) {
			rec.NoteValue = ParseNumber(cell(colNote))
		}
		if v := cell(colSafety); h.has(colSafety) && v != "" && v != "-" {
			safety := ParseNumber(v)
			rec.SafetyStock = &safety
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

func locateHeader(rows [][]string) (header, error) {
	start := -1
	limit := min(len(rows), headerScanRows)
	for i := 0; i < limit; i++ {
		if rowHasAny(rows[i], modelTokens) && rowHasAny(rows[i], contextTokens) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, row := range rows {
			if rowHasAny(row, modelTokens) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return header{}, ErrHeaderNotFound
	}

	single := rows[start]
	if start+1 < len(rows) {
		combined := combineHeaders(single, rows[start+1])
		if scoreHeader(combined) > scoreHeader(single) {
			return header{index: resolveColumns(combined), dataStart: start + 2}, nil
		}
	}
	return header{index: resolveColumns(single), dataStart: start + 1}, nil
}

func combineHeaders(first, second []string) []string {
	out := make([]string, len(first))
	for i, h := range first {
		extra := ""
		if i < len(second) {
			extra = second[i]
		}
		out[i] = strings.TrimSpace(h + extra)
	}
	return out
}

func scoreHeader(cells []string) int {
	index := resolveColumns(cells)
	score := 0
	for _, c := range scoredColumns {
		if index[c] >= 0 {
			score++
		}
	}
	return score
}

func resolveColumns(cells []string) [numColumns]int {
	normalized := make([]string, len(cells))
	for i, c := range cells {
		normalized[i] = normalizeCell(c)
	}

	var index [numColumns]int
	claimed := make(map[int]bool, len(cells))
	for c := column(0); c < numColumns; c++ {
		index[c] = -1
	}

	// Exact matches first so "month" is not stolen by "month_sales" and friends.
	for c := column(0); c < numColumns; c++ {
		if idx := findExact(normalized, columnSpecs[c].exact, claimed); idx >= 0 {
			index[c] = idx
			claimed[idx] = true
		}
	}
	for c := column(0); c < numColumns; c++ {
		if index[c] >= 0 {
			continue
		}
		if idx := findContains(normalized, columnSpecs[c].contains, claimed); idx >= 0 {
			index[c] = idx
			claimed[idx] = true
		}
	}
	return index
}

func findExact(cells, keywords []string, claimed map[int]bool) int {
	for i, cell := range cells {
		if claimed[i] || cell == "" {
			continue
		}
		for _, k := range keywords {
			if cell == k {
				return i
			}
		}
	}
	return -1
}

func findContains(cells, keywords []string, claimed map[int]bool) int {
	for _, k := range keywords {
		for i, cell := range cells {
			if !claimed[i] && strings.Contains(cell, k) {
				return i
			}
		}
	}
	return -1
}

func rowHasAny(row []string, tokens []string) bool {
	text := make([]string, len(row))
	for i, c := range row {
		text[i] = normalizeCell(c)
	}
	joined := strings.Join(text, "|")
	for _, t := range tokens {
		if strings.Contains(joined, t) {
			return true
		}
	}
	return false
}

var cellNormalizer = strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "", "\n", "", "\r", "")

func normalizeCell(value string) string {
	return cellNormalizer.Replace(strings.ToLower(strings.TrimSpace(value)))
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// UsableSKU rejects header echoes, subtotal rows and Chinese-only title cells.
func UsableSKU(sku string) bool {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return false
	}
	lower := strings.ToLower(sku)
	switch lower {
	case "型号", "型", "model", "sku":
		return false
	}
	if strings.Contains(sku, "合计") || strings.Contains(lower, "total") {
		return false
	}

	hasAlnum, hasHan := false, false
	for _, r := range sku {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			hasAlnum = true
		case unicode.Is(unicode.Han, r):
			hasHan = true
		}
	}
	return !(hasHan && !hasAlnum)
}

// ParseNumber reads a numeric cell, tolerating thousands separators. Blank,
// "-" and unparseable cells are zero.
func ParseNumber(value string) float64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" || value == "-" {
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func nullableText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" {
		return nil
	}
	return &value
}

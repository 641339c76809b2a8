package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

var (
	yearMonthPattern = regexp.MustCompile(`(\d{4})-(\d{1,2})`)
	fileMonthPattern = regexp.MustCompile(`(\d{4})\D{0,6}(\d{1,2})`)

	monthSeparators = strings.NewReplacer("年", "-", "月", "-", "日", "", ".", "-", "/", "-")

	excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// ParseMonthValue reads the month out of a spreadsheet cell. It understands
// numeric YYYYMM and YYYYMMDD, Excel serial dates, and text such as
// "2025-03", "2025/3/15", "2025.03" or "2025年3月".
func ParseMonthValue(value string) (forecast.Month, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return forecast.Month{}, false
	}

	if n, err := strconv.ParseFloat(value, 64); err == nil {
		if m, ok := monthFromNumber(n); ok {
			return m, true
		}
	}

	return monthFromText(monthSeparators.Replace(value), yearMonthPattern)
}

// MonthFromFileName finds a year followed closely by a month in a file name,
// e.g. "inventory_2025_03.xlsx" or "2025年3月库存.xlsx".
func MonthFromFileName(name string) (forecast.Month, bool) {
	return monthFromText(strings.TrimSpace(name), fileMonthPattern)
}

func monthFromNumber(n float64) (forecast.Month, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return forecast.Month{}, false
	}

	switch {
	case n >= 190001 && n <= 210012:
		v := int(n)
		return validMonth(v/100, v%100)
	case n >= 19000101 && n <= 21001231:
		v := int(n)
		return validMonth(v/10000, (v/100)%100)
	case n >= 30000 && n <= 80000:
		days := time.Duration(math.Floor(n)) * 24 * time.Hour
		return forecast.MonthOf(excelEpoch.Add(days)), true
	default:
		return forecast.Month{}, false
	}
}

func monthFromText(text string, pattern *regexp.Regexp) (forecast.Month, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return forecast.Month{}, false
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	return validMonth(year, month)
}

func validMonth(year, month int) (forecast.Month, bool) {
	if year < 1900 || year > 2100 || month < 1 || month > 12 {
		return forecast.Month{}, false
	}
	return forecast.NewMonth(year, time.Month(month)), true
}

package forecast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const monthLayout = "2006-01-02"

// Month is a calendar month, always normalized to the first day in UTC.
type Month struct {
	t time.Time
}

// NewMonth returns the month for the given year and month. Out-of-range months
// are normalized the same way time.Date does (month 13 is January next year).
func NewMonth(year int, month time.Month) Month {
	return Month{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// MonthOf truncates t to the first of its month.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return NewMonth(t.Year(), t.Month())
}

// ParseMonth accepts "YYYY-MM-DD" or "YYYY-MM". The day is discarded.
func ParseMonth(value string) (Month, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(monthLayout, value); err == nil {
		return MonthOf(t), nil
	}
	if t, err := time.Parse("2006-01", value); err == nil {
		return MonthOf(t), nil
	}
	return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM-DD or YYYY-MM", value)
}

func (m Month) Year() int           { return m.t.Year() }
func (m Month) Month() time.Month   { return m.t.Month() }
func (m Month) Time() time.Time     { return m.t }
func (m Month) IsZero() bool        { return m.t.IsZero() }
func (m Month) Before(o Month) bool { return m.t.Before(o.t) }
func (m Month) After(o Month) bool  { return m.t.After(o.t) }
func (m Month) Equal(o Month) bool  { return m.t.Equal(o.t) }

// AddMonths shifts the month by n, rolling over year boundaries in either direction.
func (m Month) AddMonths(n int) Month {
	return NewMonth(m.t.Year(), m.t.Month()+time.Month(n))
}

// MonthsUntil returns the number of whole months from m to o (negative when o is earlier).
func (m Month) MonthsUntil(o Month) int {
	return (o.Year()-m.Year())*12 + int(o.Month()) - int(m.Month())
}

// String renders the ISO first-of-month date, e.g. "2025-11-01".
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return m.t.Format(monthLayout)
}

// Label renders the short axis label "MM/YY".
func (m Month) Label() string {
	return m.t.Format("01/06")
}

func (m Month) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Month{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode month: %w", err)
	}
	parsed, err := ParseMonth(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

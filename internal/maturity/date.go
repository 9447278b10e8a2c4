package maturity

import (
	"strings"
	"time"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// DateLayout is the ISO calendar date layout.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given day.
func Date(year int, month Month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateFromParts decodes a {year, month, day} object. The day defaults to 1.
func DateFromParts(parts map[string]any) (time.Time, bool) {
	if parts == nil {
		return time.Time{}, false
	}
	year, ok := model.Int(parts["year"])
	if !ok {
		return time.Time{}, false
	}
	month, ok := model.Int(parts["month"])
	if !ok || !Month(month).Valid() {
		return time.Time{}, false
	}
	day := 1
	if v, present := parts["day"]; present && v != nil {
		if day, ok = model.Int(v); !ok {
			return time.Time{}, false
		}
	}
	return Date(year, Month(month), day), true
}

// PartsFromDate encodes a date as a {year, month, day} object.
func PartsFromDate(t time.Time) map[string]any {
	return map[string]any{
		"year":  t.Year(),
		"month": int(t.Month()),
		"day":   t.Day(),
	}
}

// NormalizeDate accepts date-part objects, time.Time values and ISO strings
// (with an optional time part and trailing Z) and returns the calendar date.
func NormalizeDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return Date(t.Year(), Month(t.Month()), t.Day()), true
	case map[string]any:
		return DateFromParts(t)
	case model.Document:
		return DateFromParts(t)
	case string:
		s := strings.TrimSuffix(t, "Z")
		s, _, _ = strings.Cut(s, "T")
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	default:
		return time.Time{}, false
	}
}

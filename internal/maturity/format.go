package maturity

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// now is replaced in tests.
var now = time.Now

var (
	// 2021-08-01, 20210801, 2021-8-1, 2021-8, 2021-08
	reNumeric = regexp.MustCompile(`^(\d{4})-?((?:0|1)?\d)-?(\d{0,2})`)
	// Q21, Q2021, 8-2021, 08-21, 082021
	reMonthYear = regexp.MustCompile(`^((?:0|1)?\d|[FGHJKMNQUVXZ])-?((?:20)?\d{2})$`)
	// Q1
	reLetterDigit = regexp.MustCompile(`^([FGHJKMNQUVXZ])-?(\d)$`)
	// 1Q2021, 01Q2021, 1Q21
	reDayLetterYear = regexp.MustCompile(`^(\d{1,2})([FGHJKMNQUVXZ])((?:20)?\d{2})$`)
	// 01-08-2021
	reDayMonthYear = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

	reSymNumericMonth = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	reSymNumericDay   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reSymbolic        = regexp.MustCompile(`^(\d{1,2})?([FGHJKMNQUVXZ])(\d{4})$`)
)

// Format turns any supported maturity shape into "YYYY-MM" or "YYYY-MM-DD".
// Supported inputs are date-part objects, time.Time and the string shorthands
// listed next to the patterns above. Format is idempotent.
func Format(v any) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		return formatParts(t)
	case model.Document:
		return formatParts(t)
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(DateLayout), true
	case string:
		return formatString(t)
	default:
		return "", false
	}
}

func formatParts(parts map[string]any) (string, bool) {
	year, ok := model.Int(parts["year"])
	if !ok {
		return "", false
	}
	month, ok := model.Int(parts["month"])
	if !ok {
		return "", false
	}
	out := fmt.Sprintf("%d-%02d", year, month)
	if day, ok := model.Int(parts["day"]); ok && day != 0 {
		out += fmt.Sprintf("-%02d", day)
	}
	return out, true
}

func formatString(s string) (string, bool) {
	if m := reNumeric.FindStringSubmatch(s); m != nil {
		out := m[1] + "-" + pad2(m[2])
		if m[3] != "" {
			out += "-" + pad2(m[3])
		}
		return out, true
	}
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		month := m[1]
		if code, ok := FromLetter(month); ok {
			month = fmt.Sprintf("%02d", int(code))
		} else {
			month = pad2(month)
		}
		return fullYear(m[2]) + "-" + month, true
	}
	if m := reLetterDigit.FindStringSubmatch(s); m != nil {
		code, _ := FromLetter(m[1])
		digit, _ := strconv.Atoi(m[2])
		year := 2020 + digit
		for year < now().Year() {
			year += 10
		}
		return fmt.Sprintf("%d-%02d", year, int(code)), true
	}
	if m := reDayLetterYear.FindStringSubmatch(s); m != nil {
		code, _ := FromLetter(m[2])
		return fmt.Sprintf("%s-%02d-%s", fullYear(m[3]), int(code), pad2(m[1])), true
	}
	if m := reDayMonthYear.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], true
	}
	return "", false
}

// ToSymbolic converts "YYYY-MM" to "Z2021" and "YYYY-MM-DD" to "15Z2021".
func ToSymbolic(numeric string) (string, bool) {
	if m := reSymNumericMonth.FindStringSubmatch(numeric); m != nil {
		letter, ok := letterOf(m[2])
		if !ok {
			return "", false
		}
		return letter + m[1], true
	}
	if m := reSymNumericDay.FindStringSubmatch(numeric); m != nil {
		letter, ok := letterOf(m[2])
		if !ok {
			return "", false
		}
		day, _ := strconv.Atoi(m[3])
		return strconv.Itoa(day) + letter + m[1], true
	}
	return "", false
}

// FromSymbolic converts "Z2021" to "2021-12" and "1Z2021" to "2021-12-01".
func FromSymbolic(symbolic string) (string, bool) {
	m := reSymbolic.FindStringSubmatch(symbolic)
	if m == nil {
		return "", false
	}
	code, _ := FromLetter(m[2])
	out := fmt.Sprintf("%s-%02d", m[3], int(code))
	if m[1] != "" {
		out += "-" + pad2(m[1])
	}
	return out, true
}

// Symbolic formats year and month as "H2024".
func Symbolic(year int, month Month) string {
	return month.Letter() + strconv.Itoa(year)
}

// Parts splits a numeric maturity into a {year, month[, day]} object.
func Parts(numeric string) (map[string]any, bool) {
	var year, month, day int
	if m := reSymNumericDay.FindStringSubmatch(numeric); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	} else if m := reSymNumericMonth.FindStringSubmatch(numeric); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
	} else {
		return nil, false
	}
	parts := map[string]any{"year": year, "month": month}
	if day != 0 {
		parts["day"] = day
	}
	return parts, true
}

func letterOf(mm string) (string, bool) {
	n, err := strconv.Atoi(mm)
	if err != nil || !Month(n).Valid() {
		return "", false
	}
	return Month(n).Letter(), true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func fullYear(s string) string {
	if len(s) == 2 {
		return "20" + s
	}
	return s
}

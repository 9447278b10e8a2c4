package maturity

import "strings"

// Month is a calendar month, 1 through 12.
type Month int

// monthLetters maps Month-1 to its futures code.
const monthLetters = "FGHJKMNQUVXZ"

// Letter returns the futures month code, or "" for an invalid month.
func (m Month) Letter() string {
	if !m.Valid() {
		return ""
	}
	return monthLetters[m-1 : m]
}

// Valid reports whether m is within 1..12.
func (m Month) Valid() bool { return m >= 1 && m <= 12 }

// FromLetter parses a single futures month code.
func FromLetter(code string) (Month, bool) {
	if len(code) != 1 {
		return 0, false
	}
	i := strings.Index(monthLetters, code)
	if i < 0 {
		return 0, false
	}
	return Month(i + 1), true
}

// Letters returns the twelve codes in month order.
func Letters() []string {
	out := make([]string, len(monthLetters))
	for i := range monthLetters {
		out[i] = monthLetters[i : i+1]
	}
	return out
}

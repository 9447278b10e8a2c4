package maturity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthTable(t *testing.T) {
	letters := Letters()
	require.Len(t, letters, 12)
	assert.Equal(t, "FGHJKMNQUVXZ", joinAll(letters))

	for i, l := range letters {
		m, ok := FromLetter(l)
		require.True(t, ok)
		assert.Equal(t, Month(i+1), m)
		assert.Equal(t, l, m.Letter())
	}

	_, ok := FromLetter("A")
	assert.False(t, ok)
	assert.Equal(t, "", Month(13).Letter())
}

func TestFormat(t *testing.T) {
	restore := now
	now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = restore })

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"iso month", "2021-08", "2021-08"},
		{"iso day", "2021-08-01", "2021-08-01"},
		{"compact", "20210801", "2021-08-01"},
		{"single digits", "2021-8-1", "2021-08-01"},
		{"letter short year", "Z21", "2021-12"},
		{"letter full year", "Q2021", "2021-08"},
		{"numeric month year", "8-2021", "2021-08"},
		{"numeric short", "08-21", "2021-08"},
		{"letter digit rolls forward", "H1", "2031-03"},
		{"letter digit current decade", "H7", "2027-03"},
		{"day letter year", "1Q2021", "2021-08-01"},
		{"day letter short year", "15Z23", "2023-12-15"},
		{"european", "01-08-2021", "2021-08-01"},
		{"parts", map[string]any{"year": 2023, "month": 9}, "2023-09"},
		{"parts with day", map[string]any{"year": float64(2023), "month": float64(12), "day": float64(15)}, "2023-12-15"},
		{"date", time.Date(2023, 10, 20, 0, 0, 0, 0, time.UTC), "2023-10-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Format(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []any{"garbage", "", 42, nil} {
		_, ok := Format(bad)
		assert.False(t, ok, "%v", bad)
	}
}

func TestFormatIdempotent(t *testing.T) {
	inputs := []any{
		"Z21",
		"2021-12",
		time.Date(2021, 12, 17, 0, 0, 0, 0, time.UTC),
		map[string]any{"year": 2021, "month": 12},
		map[string]any{"year": 2021, "month": 12, "day": 3},
		"3Z2021",
	}
	for _, in := range inputs {
		once, ok := Format(in)
		require.True(t, ok, "%v", in)
		twice, ok := Format(once)
		require.True(t, ok, "%v", once)
		assert.Equal(t, once, twice, "%v", in)
	}
}

func TestSymbolicRoundTrip(t *testing.T) {
	tests := []struct {
		numeric  string
		symbolic string
	}{
		{"2021-12", "Z2021"},
		{"2024-03", "H2024"},
		{"2023-12-15", "15Z2023"},
		{"2023-12-05", "5Z2023"},
	}
	for _, tt := range tests {
		sym, ok := ToSymbolic(tt.numeric)
		require.True(t, ok)
		assert.Equal(t, tt.symbolic, sym)

		back, ok := FromSymbolic(sym)
		require.True(t, ok)
		assert.Equal(t, tt.numeric, back)
	}

	_, ok := ToSymbolic("2021-13")
	assert.False(t, ok)
	_, ok = FromSymbolic("2021-12")
	assert.False(t, ok)
}

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC)
	inputs := []any{
		"2023-09-15",
		"2023-09-15T21:30:00Z",
		map[string]any{"year": 2023, "month": 9, "day": 15},
		time.Date(2023, 9, 15, 14, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		got, ok := NormalizeDate(in)
		require.True(t, ok, "%v", in)
		assert.True(t, want.Equal(got), "%v: got %v", in, got)
	}

	got, ok := DateFromParts(map[string]any{"year": 2024, "month": 2})
	require.True(t, ok)
	assert.Equal(t, 1, got.Day())

	_, ok = NormalizeDate("15/09/2023")
	assert.False(t, ok)
	_, ok = DateFromParts(map[string]any{"month": 2})
	assert.False(t, ok)
}

func TestParts(t *testing.T) {
	p, ok := Parts("2023-12-15")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"year": 2023, "month": 12, "day": 15}, p)

	p, ok = Parts("2024-03")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"year": 2024, "month": 3}, p)
}

func joinAll(ss []string) string {
	out := ""
	for _, s := range ss {
		out += s
	}
	return out
}

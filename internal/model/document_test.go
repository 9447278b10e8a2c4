package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentAccessors(t *testing.T) {
	d := Document{
		"_id":        "abc",
		"_rev":       "1",
		"name":       "ES",
		"isAbstract": true,
		"isTrading":  false,
		"path":       []any{"root", "future", "abc"},
	}

	assert.Equal(t, "abc", d.ID())
	assert.Equal(t, "1", d.Rev())
	assert.Equal(t, "ES", d.Name())
	assert.True(t, d.IsAbstract())
	assert.True(t, d.NotTrading())
	assert.Equal(t, []string{"root", "future", "abc"}, d.Path())
}

func TestDocumentCloneIsDeep(t *testing.T) {
	orig := Document{
		"expiry": map[string]any{"year": 2023},
		"legs":   []any{map[string]any{"quantity": 1}},
	}
	c := orig.Clone()
	c.Map("expiry")["year"] = 2024
	c["legs"].([]any)[0].(map[string]any)["quantity"] = -1

	assert.Equal(t, 2023, orig.Map("expiry")["year"])
	assert.Equal(t, 1, orig["legs"].([]any)[0].(map[string]any)["quantity"])
}

func TestDocumentSet(t *testing.T) {
	d := Document{}
	d.Set("US0000001", "identifiers/ISIN")
	d.Set("10:00:00", "lastTrading", "time")

	v, ok := d.Lookup("identifiers", "ISIN")
	require.True(t, ok)
	assert.Equal(t, "US0000001", v)

	v, ok = d.Lookup("lastTrading", "time")
	require.True(t, ok)
	assert.Equal(t, "10:00:00", v)

	d.Delete("lastTrading", "time")
	_, ok = d.Lookup("lastTrading", "time")
	assert.False(t, ok)
}

func TestDocumentUnderscored(t *testing.T) {
	d := Document{"_id": "x", "_rev": "2", "name": "n"}
	assert.Equal(t, Document{"_id": "x", "_rev": "2"}, d.Underscored())
	assert.Equal(t, Document{"name": "n"}, d.Without("_id", "_rev"))
}

func TestCompare(t *testing.T) {
	ref := Document{
		"expiry":   map[string]any{"year": float64(2023), "month": float64(9)},
		"name":     "2023-09",
		"obsolete": true,
	}
	live := Document{
		"expiry": map[string]any{"year": 2023, "month": 10},
		"name":   "2023-09",
		"ticker": "ES",
	}

	diff := Compare(ref, live)
	require.Len(t, diff, 3)
	assert.Equal(t, []string{"expiry.month", "obsolete", "ticker"}, diff.Paths())
	assert.Equal(t, Changed, diff[0].Kind)
	assert.Equal(t, Removed, diff[1].Kind)
	assert.Equal(t, Added, diff[2].Kind)

	assert.True(t, Compare(ref, ref.Clone()).Empty())
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{3, 3, true},
		{float64(12), 12, true},
		{float64(1.5), 0, false},
		{"7", 0, false},
	}
	for _, tt := range tests {
		got, ok := Int(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

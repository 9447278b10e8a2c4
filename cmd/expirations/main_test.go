package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/series"
)

func TestParseExpiration(t *testing.T) {
	tests := []struct {
		raw      string
		calendar bool
		want     expirationArg
	}{
		{"2023-12-15:Z2023", false, expirationArg{date: "2023-12-15", maturity: "Z2023"}},
		{"2023-12-15:2023-12", false, expirationArg{date: "2023-12-15", maturity: "2023-12"}},
		{"2023-09-15:U2023-Z2023", true, expirationArg{date: "2023-09-15", near: "U2023", far: "Z2023"}},
		{"2023-09-15:2023-09-2023-12", true, expirationArg{date: "2023-09-15", near: "2023-09", far: "2023-12"}},
		{"2023-09-15:U2023-2024-01", true, expirationArg{date: "2023-09-15", near: "U2023", far: "2024-01"}},
		{"2023-09-15:2023-09-Z2023", true, expirationArg{date: "2023-09-15", near: "2023-09", far: "Z2023"}},
	}
	for _, tt := range tests {
		got, err := parseExpiration(tt.raw, tt.calendar)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, raw := range []string{"Z2023", "2023-13-40:Z2023", "2023-12-15:"} {
		_, err := parseExpiration(raw, false)
		assert.Error(t, err, raw)
	}
	_, err := parseExpiration("2023-09-15:U2023", true)
	assert.Error(t, err)
}

func TestAddOptions(t *testing.T) {
	opts, err := addOptions(series.KindFuture, runArgs{update: true, calls: "oops"})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	opts, err = addOptions(series.KindOption, runArgs{calls: "4400, 4412.5", puts: "4400"})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = addOptions(series.KindOption, runArgs{calls: "4400,x"})
	assert.Error(t, err)
}

func TestParseStrikesKeepsDigits(t *testing.T) {
	got, err := parseStrikes("0.1, 4412.5,1.10")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "0.1", got[0].Price.String())
	assert.Equal(t, "4412.5", got[1].Price.String())
	assert.True(t, got[2].Price.Equal(decimal.RequireFromString("1.1")))

	empty, err := parseStrikes("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseStrikes("1,,2")
	assert.Error(t, err)
}

package naming

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/model"
)

type staticRefs struct {
	exchanges map[string]string
	timezones map[string]string
}

func (r staticRefs) ExchangeName(id string) (string, bool) {
	v, ok := r.exchanges[id]
	return v, ok
}

func (r staticRefs) ScheduleTimezone(id string) (string, bool) {
	v, ok := r.timezones[id]
	return v, ok
}

var refs = staticRefs{
	exchanges: map[string]string{"cme-id": "CME", "nasdaq-id": "NASDAQ", "exante-id": "EXANTE"},
	timezones: map[string]string{"cme-sched": "America/Chicago", "utc-sched": "UTC"},
}

func TestSymbolID(t *testing.T) {
	tests := []struct {
		name string
		doc  model.Document
		want string
		ok   bool
	}{
		{
			name: "future with day",
			doc: model.Document{
				"type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id",
				"maturityDate": map[string]any{"day": 15, "month": 12, "year": 2023},
			},
			want: "ES.CME.15Z2023", ok: true,
		},
		{
			name: "future decoded from json",
			doc: model.Document{
				"type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id",
				"maturityDate": map[string]any{"month": float64(3), "year": float64(2024)},
			},
			want: "ES.CME.H2024", ok: true,
		},
		{
			name: "forward calendar spread",
			doc: model.Document{
				"type": "CALENDAR_SPREAD", "ticker": "ES", "exchangeId": "cme-id",
				"spreadType":       "FORWARD",
				"nearMaturityDate": map[string]any{"month": 3, "year": 2024},
				"farMaturityDate":  map[string]any{"month": 6, "year": 2024},
			},
			want: "ES.CME.CS/H2024-M2024", ok: true,
		},
		{
			name: "reverse calendar spread",
			doc: model.Document{
				"type": "CALENDAR_SPREAD", "ticker": "ES", "exchangeId": "cme-id",
				"spreadType":       "REVERSE",
				"nearMaturityDate": map[string]any{"month": 3, "year": 2024},
				"farMaturityDate":  map[string]any{"month": 6, "year": 2024},
			},
			want: "ES.CME.RS/H2024-M2024", ok: true,
		},
		{
			name: "calendar spread unknown orientation",
			doc: model.Document{
				"type": "CALENDAR_SPREAD", "ticker": "ES", "exchangeId": "cme-id",
				"spreadType":       "BUTTERFLY",
				"nearMaturityDate": map[string]any{"month": 3, "year": 2024},
				"farMaturityDate":  map[string]any{"month": 6, "year": 2024},
			},
		},
		{
			name: "calendar spread missing far",
			doc: model.Document{
				"type": "CALENDAR_SPREAD", "ticker": "ES", "exchangeId": "cme-id",
				"spreadType":       "FORWARD",
				"nearMaturityDate": map[string]any{"month": 3, "year": 2024},
			},
		},
		{
			name: "option",
			doc: model.Document{
				"type": "OPTION", "ticker": "ES", "exchangeId": "cme-id",
				"maturityDate": map[string]any{"month": 3, "year": 2024},
			},
			want: "ES.CME.H2024.B*", ok: true,
		},
		{
			name: "stock",
			doc:  model.Document{"type": "STOCK", "ticker": "AAPL", "exchangeId": "nasdaq-id"},
			want: "AAPL.NASDAQ", ok: true,
		},
		{
			name: "forex",
			doc: model.Document{
				"type": "FOREX", "baseCurrency": "EUR", "currency": "USD", "exchangeId": "exante-id",
			},
			want: "EUR/USD.EXANTE", ok: true,
		},
		{
			name: "perpetual",
			doc: model.Document{
				"type": "FUTURE", "ticker": "BTC", "exchangeId": "cme-id", "maturityName": "PERPETUAL",
			},
			want: "BTC.CME.PERPETUAL", ok: true,
		},
		{
			name: "maturity name suffix",
			doc: model.Document{
				"type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id", "maturityName": "W1",
				"maturityDate": map[string]any{"month": 3, "year": 2024},
			},
			want: "ES.CME.H2024.W1", ok: true,
		},
		{
			name: "future without maturity",
			doc:  model.Document{"type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id"},
		},
		{
			name: "abstract",
			doc: model.Document{
				"isAbstract": true, "type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id",
				"maturityDate": map[string]any{"month": 3, "year": 2024},
			},
		},
		{
			name: "unknown exchange",
			doc:  model.Document{"type": "STOCK", "ticker": "AAPL", "exchangeId": "nope"},
		},
		{
			name: "missing type",
			doc:  model.Document{"ticker": "AAPL", "exchangeId": "nasdaq-id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SymbolID(tt.doc, refs, "")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbolIDCustomStrike(t *testing.T) {
	doc := model.Document{
		"type": "OPTION", "ticker": "ES", "exchangeId": "cme-id",
		"maturityDate": map[string]any{"month": 3, "year": 2024},
	}
	got, ok := SymbolID(doc, refs, "C4500")
	require.True(t, ok)
	assert.Equal(t, "ES.CME.H2024.C4500", got)
}

func TestExpiryTime(t *testing.T) {
	tests := []struct {
		name string
		doc  model.Document
		want string
		ok   bool
	}{
		{
			name: "chicago winter",
			doc: model.Document{
				"scheduleId": "cme-sched",
				"expiry":     map[string]any{"year": 2023, "month": 12, "day": 15, "time": "08:30:00"},
			},
			want: "2023-12-15T14:30:00.000Z", ok: true,
		},
		{
			name: "chicago summer",
			doc: model.Document{
				"scheduleId": "cme-sched",
				"expiry":     map[string]any{"year": 2023, "month": 9, "day": 15, "time": "08:30"},
			},
			want: "2023-09-15T13:30:00.000Z", ok: true,
		},
		{
			name: "default midnight and day",
			doc: model.Document{
				"scheduleId": "utc-sched",
				"expiry":     map[string]any{"year": 2024, "month": 2},
			},
			want: "2024-02-01T00:00:00.000Z", ok: true,
		},
		{
			name: "unknown schedule",
			doc: model.Document{
				"scheduleId": "nope",
				"expiry":     map[string]any{"year": 2024, "month": 2, "day": 1},
			},
		},
		{
			name: "missing expiry",
			doc:  model.Document{"scheduleId": "utc-sched"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExpiryTime(tt.doc, refs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fixedCompiler struct {
	doc   model.Document
	calls int
}

func (c *fixedCompiler) Build(_ context.Context, _ inherit.Payload, _ bool, _ *inherit.Cache) (model.Document, error) {
	c.calls++
	return c.doc, nil
}

func TestNamerCompilesRawDocuments(t *testing.T) {
	compiled := model.Document{
		"type": "FUTURE", "ticker": "ES", "exchangeId": "cme-id", "scheduleId": "utc-sched",
		"maturityDate": map[string]any{"month": 12, "year": 2023},
		"expiry":       map[string]any{"year": 2023, "month": 12, "day": 15, "time": "16:00:00"},
	}
	c := &fixedCompiler{doc: compiled}
	n := NewNamer(refs, c)

	id, ok, err := n.SymbolID(context.Background(), model.Document{"isAbstract": false}, false, "", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ES.CME.Z2023", id)
	assert.Equal(t, 1, c.calls)

	ts, ok, err := n.ExpiryTime(context.Background(), compiled, true, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2023-12-15T16:00:00.000Z", ts)
	assert.Equal(t, 1, c.calls)

	_, ok, err = n.SymbolID(context.Background(), model.Document{"isAbstract": true}, false, "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.calls)
}

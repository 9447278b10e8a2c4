package series

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
)

func TestOptionAdd(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, "ES", "CME", KindOption)
	ctx := context.Background()

	assert.Equal(t, "oes", s.Instrument.ID())
	require.Len(t, s.Contracts, 1)

	_, err := s.Add(ctx, maturity.Date(2023, 10, 20), "V2023")
	assert.ErrorIs(t, err, ErrExpiration, "strikes are required")

	_, err = s.Add(ctx, maturity.Date(2023, 10, 20), "V2023", WithStrikes(NewStrikes([]float64{4400}, nil)))
	assert.ErrorIs(t, err, ErrExpiration, "both sides are required")

	res, err := s.Add(ctx, maturity.Date(2023, 10, 20), "V2023",
		WithStrikes(NewStrikes([]float64{4412.5, 4400, 4400}, []float64{4400})),
	)
	require.NoError(t, err)
	assert.Equal(t, "ES.CME.V2023", res.Created)

	require.Len(t, s.NewExpirations, 1)
	e := s.NewExpirations[0]
	assert.Equal(t, map[string]any{
		model.SideCall: []any{
			map[string]any{"strikePrice": 4400.0, "isAvailable": true},
			map[string]any{"strikePrice": 4412.5, "isAvailable": true},
		},
		model.SidePut: []any{
			map[string]any{"strikePrice": 4400.0, "isAvailable": true},
		},
	}, e.Doc["strikePrices"])

	assert.Equal(t, "ES.CME.V2023.C4412_5", e.StrikeID(model.SideCall, decimal.RequireFromString("4412.5")))
	assert.Equal(t, "ES.CME.V2023.P4400", e.StrikeID(model.SidePut, decimal.NewFromInt(4400)))
}

func TestOptionAddStrikes(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, "ES", "CME", KindOption)
	ctx := context.Background()

	res, err := s.Add(ctx, maturity.Date(2023, 9, 15), "U2023",
		SkipIfExists(false),
		WithStrikes(NewStrikes([]float64{4400, 4500}, nil)),
	)
	require.NoError(t, err)
	assert.Equal(t, "ES.CME.U2023", res.Updated)
	assert.Equal(t, model.Diff{{Path: "strikePrices.CALL", Kind: model.Added, New: "4500"}}, res.Diff)

	res, err = s.Add(ctx, maturity.Date(2023, 9, 15), "U2023",
		SkipIfExists(false),
		WithStrikes(NewStrikes([]float64{4500}, []float64{4400})),
	)
	require.NoError(t, err)
	assert.Equal(t, "ES.CME.U2023", res.Updated, "still differs from the stored state")

	report, err := s.Commit(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES.CME.U2023"}, report["ES.CME"].ToUpdate)
}

func TestOptionOverwriteKeepsStrikes(t *testing.T) {
	f := newFixture(t)
	s := f.load(t, "ES", "CME", KindOption)

	res, err := s.Add(context.Background(), maturity.Date(2023, 9, 15), "U2023", OverwriteOld())
	require.NoError(t, err)
	assert.True(t, res.Empty(), "rebuilt document equals the stored one")

	e, err := s.Find(nil, "U2023", "")
	require.NoError(t, err)
	assert.Equal(t, "oes-u3", e.Doc.ID())
	assert.Len(t, e.Doc.Map("strikePrices")[model.SideCall], 1)
}

func TestOptionDiff(t *testing.T) {
	reference := model.Document{
		"name": "2023-09",
		"strikePrices": map[string]any{
			model.SideCall: strikes(4400, 4500),
			model.SidePut:  strikes(4400),
		},
	}
	live := reference.Clone()
	call := live.Map("strikePrices")[model.SideCall].([]any)
	model.AsMap(call[1])["isAvailable"] = false
	live["name"] = "2023-09-15"

	diff := optionDiff(reference, live)
	assert.Equal(t, model.Diff{
		{Path: "name", Kind: model.Changed, Old: "2023-09", New: "2023-09-15"},
		{Path: "strikePrices.CALL", Kind: model.Removed, Old: "4500"},
	}, diff)

	assert.Empty(t, optionDiff(reference, reference.Clone()))
}

func TestParseStrikes(t *testing.T) {
	got, err := ParseStrikes(map[string]any{
		"CALL": []any{4400.0, "4412.5", map[string]any{"strikePrice": 4500.0, "ISIN": "US0000000003"}},
		"PUT": []any{
			map[string]any{"strikePrice": "4400", "identifiers": map[string]any{"FIGI": "BBG000000002", "RIC": "x"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, got.Call, 3)
	assert.True(t, got.Call[1].Price.Equal(decimal.RequireFromString("4412.5")))
	assert.Equal(t, map[string]any{"ISIN": "US0000000003"}, got.Call[2].Identifiers)
	require.Len(t, got.Put, 1)
	assert.Equal(t, map[string]any{"FIGI": "BBG000000002"}, got.Put[0].Identifiers)

	_, err = ParseStrikes(map[string]any{"CALL": []any{true}})
	assert.ErrorIs(t, err, ErrExpiration)

	_, err = ParseStrikes(map[string]any{"PUT": []any{"abc"}})
	assert.Error(t, err)
}

func TestAddStrikesReportsAdded(t *testing.T) {
	doc := model.Document{"strikePrices": map[string]any{
		model.SideCall: strikes(10),
		model.SidePut:  strikes(10),
	}}
	added := addStrikes(doc, NewStrikes([]float64{10, 12.5}, []float64{9}))
	assert.Equal(t, []string{"C12_5", "P9"}, added)
	assert.Len(t, doc.Map("strikePrices")[model.SidePut], 2)
}

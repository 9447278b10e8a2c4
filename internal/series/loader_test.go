package series

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := LoadAll(ctx, f.deps, []Request{
		{Ticker: "ES", Exchange: "CME"},
		{Ticker: "YM", Exchange: "CME"},
		{Ticker: "YM", Exchange: "CME", Create: true, Options: Options{ShortName: "Mini Dow"}},
		{Ticker: "ES", Exchange: "CME", Options: Options{Kind: KindOption}},
	}, LoaderConfig{Concurrency: 2})

	require.Len(t, out, 4)
	require.NoError(t, out[0].Err)
	assert.Equal(t, "es", out[0].Series.Instrument.ID())
	assert.ErrorIs(t, out[1].Err, ErrNoInstrument)
	assert.Nil(t, out[1].Series)
	require.NoError(t, out[2].Err)
	assert.Empty(t, out[2].Series.Instrument.ID())
	require.NoError(t, out[3].Err)
	assert.Equal(t, "oes", out[3].Series.Instrument.ID())
	assert.Equal(t, "YM", out[1].Request.Ticker)

	report, err := CommitAll(ctx, []*Series{out[0].Series, out[2].Series}, true, LoaderConfig{})
	require.NoError(t, err)
	assert.Len(t, report, 2)
	assert.Equal(t, FolderToCreate, report["YM.CME"].Folder)
}

func TestLoadAllCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := LoadAll(ctx, f.deps, []Request{{Ticker: "ES", Exchange: "CME"}}, LoaderConfig{})
	require.Len(t, out, 1)
	assert.ErrorIs(t, out[0].Err, context.Canceled)
}

func TestCommitAllJoinsErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	es := f.load(t, "ES", "CME", KindFuture)
	ym, err := New(ctx, f.deps, "YM", "CME", Options{ShortName: "Mini Dow"})
	require.NoError(t, err)
	f.store.createErr = errors.New("unavailable")

	report, err := CommitAll(ctx, []*Series{es, ym}, false, LoaderConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YM.CME")
	assert.Contains(t, report, "ES.CME")
	assert.NotContains(t, report, "YM.CME")
}

func TestLoaderConfigDefaults(t *testing.T) {
	assert.Equal(t, DefaultLoaderConfig(), LoaderConfig{}.withDefaults())

	cfg := LoaderConfig{Concurrency: 3}.withDefaults()
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, DefaultLoaderConfig().Timeout, cfg.Timeout)
}

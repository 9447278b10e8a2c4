package reflist

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/sdb"
)

type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string][]model.Document
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls: make(map[string]int),
		data: map[string][]model.Document{
			sdb.ResourceExchanges: {
				{"_id": "ex-cme", "name": "Chicago Mercantile Exchange", "exchangeName": "CME"},
				{"_id": "ex-x", "name": "NOSHORT"},
			},
			sdb.ResourceSchedules: {
				{"_id": "sch-1", "name": "CME Globex", "timezone": "America/Chicago"},
			},
			sdb.ResourceBrokerAccounts: {
				{"_id": "acc-1", "name": "main", "providerId": "p1", "providerName": "IB", "gatewayId": "g1", "gatewayName": "gw"},
				{"_id": "acc-2", "name": "spare", "providerId": "p1", "providerName": "IB", "gatewayId": "g1", "gatewayName": "gw"},
			},
			sdb.ResourceFeedGateways: {
				{"_id": "g1", "name": "gw", "providerId": "fp", "providerName": "Feed"},
			},
			sdb.ResourceCurrencies: {{"_id": "USD"}},
			sdb.ResourceSections: {
				{"_id": "s1", "name": "Futures", "exchangeId": "ex-cme", "scheduleId": "sch-1"},
			},
			sdb.ResourceExecutionSchemes: {{"_id": "es1", "name": "Default"}},
		},
	}
}

func (f *fakeSource) List(_ context.Context, resource string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[resource]++
	return f.data[resource], nil
}

func (f *fakeSource) count(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[resource]
}

func TestListsReferences(t *testing.T) {
	ctx := context.Background()
	l := New(EnvProd, newFakeSource())
	require.NoError(t, l.Load(ctx))

	name, ok := l.ExchangeName("ex-cme")
	assert.True(t, ok)
	assert.Equal(t, "CME", name)

	name, ok = l.ExchangeName("ex-x")
	assert.True(t, ok)
	assert.Equal(t, "NOSHORT", name)

	_, ok = l.ExchangeName("missing")
	assert.False(t, ok)

	tz, ok := l.ScheduleTimezone("sch-1")
	assert.True(t, ok)
	assert.Equal(t, "America/Chicago", tz)
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	l := New(EnvProd, newFakeSource())

	accounts, err := l.Entries(ctx, Accounts)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "IB: gw: main", accounts[0].Display)
	assert.Equal(t, map[string]any{
		"accountId": "acc-1",
		"account":   map[string]any{"providerId": "p1", "gatewayId": "g1"},
	}, accounts[0].Extra)

	gateways, err := l.Entries(ctx, Gateways)
	require.NoError(t, err)
	assert.Equal(t, "Feed: gw", gateways[0].Display)
	assert.Equal(t, "g1", gateways[0].Extra["gatewayId"])

	brokers, err := l.Entries(ctx, BrokerProviders)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Display: "IB", ID: "p1"}}, brokers)

	currencies, err := l.Entries(ctx, Currencies)
	require.NoError(t, err)
	assert.Equal(t, "USD", currencies[0].Display)

	section, ok, err := l.Find(ctx, Sections, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sch-1", section.Extra["scheduleId"])

	_, err = l.Entries(ctx, "nonsense")
	assert.Error(t, err)
}

func TestTTL(t *testing.T) {
	assert.Equal(t, 72*time.Hour, TTL(Exchanges))
	assert.Equal(t, 72*time.Hour, TTL(FeedProviders))
	assert.Equal(t, 120*time.Minute, TTL(Sections))
	assert.Equal(t, 120*time.Minute, TTL(Tree))

	l := New(EnvProd, nil, WithTTL(Exchanges, time.Minute))
	assert.Equal(t, time.Minute, l.TTL(Exchanges))
	assert.Equal(t, 72*time.Hour, l.TTL(Schedules))
}

func TestRootFolder(t *testing.T) {
	id, ok := RootFolder(EnvDemo)
	assert.True(t, ok)
	assert.Equal(t, "0509b7989c5a565c815c6ef657454f2d", id)

	id, _ = RootFolder(EnvCProd)
	assert.Equal(t, "2d1040e2962c4bab9fcf9d66af4bfb49", id)

	_, ok = RootFolder("nowhere")
	assert.False(t, ok)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	docs := []model.Document{{"_id": "a", "name": "A"}, {"_id": "b", "name": "B"}}
	require.NoError(t, store.Save(ctx, EnvDemo, Exchanges, docs, time.Hour))

	// demo shares the prod slot.
	_, err := os.Stat(filepath.Join(dir, EnvProd, "exchanges.jsonl"))
	require.NoError(t, err)

	got, ok, err := store.Load(ctx, EnvProd, Exchanges, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[1].Name())

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok, err = store.Load(ctx, EnvProd, Exchanges, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "stale file is a miss")

	_, ok, err = store.Load(ctx, EnvStage, Exchanges, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "missing file is a miss")

	bad := filepath.Join(dir, EnvStage, "schedules.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(bad), 0o755))
	require.NoError(t, os.WriteFile(bad, []byte("{not json\n"), 0o644))
	_, ok, err = NewFileStore(dir).Load(ctx, EnvStage, Schedules, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "malformed file is a miss")
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBadgerStore("")
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Load(ctx, EnvProd, Schedules, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	docs := []model.Document{{"_id": "sch-1", "timezone": "Europe/London"}}
	require.NoError(t, store.Save(ctx, EnvDemo, Schedules, docs, time.Hour))

	got, ok, err := store.Load(ctx, EnvProd, Schedules, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Europe/London", got[0].String("timezone"))
}

func TestListsUseStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	src := newFakeSource()
	first := New(EnvDemo, src, WithStore(store))
	require.NoError(t, first.Load(ctx, Exchanges))
	assert.Equal(t, 1, src.count(sdb.ResourceExchanges))

	// A second run is served from the store.
	second := New(EnvProd, src, WithStore(store))
	require.NoError(t, second.Load(ctx, Exchanges))
	assert.Equal(t, 1, src.count(sdb.ResourceExchanges))

	name, ok := second.ExchangeName("ex-cme")
	assert.True(t, ok)
	assert.Equal(t, "CME", name)

	require.NoError(t, second.Reload(ctx, Exchanges))
	assert.Equal(t, 2, src.count(sdb.ResourceExchanges))
}

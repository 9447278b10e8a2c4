package reflist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/sdb"
)

// Environments.
const (
	EnvProd  = "prod"
	EnvCProd = "cprod"
	EnvDemo  = "demo"
	EnvStage = "stage"
)

// List names.
const (
	Exchanges        = "exchanges"
	ExecutionSchemes = "execution_schemes"
	Accounts         = "accounts"
	Gateways         = "gateways"
	Schedules        = "schedules"
	Currencies       = "currencies"
	Sections         = "sections"
	FeedProviders    = "feed_providers"
	BrokerProviders  = "broker_providers"
	Tree             = "tree"
)

// rawLists are fetched from SymbolDB; the others are derived from them.
var rawLists = map[string]string{
	Exchanges:        sdb.ResourceExchanges,
	ExecutionSchemes: sdb.ResourceExecutionSchemes,
	Accounts:         sdb.ResourceBrokerAccounts,
	Gateways:         sdb.ResourceFeedGateways,
	Schedules:        sdb.ResourceSchedules,
	Currencies:       sdb.ResourceCurrencies,
	Sections:         sdb.ResourceSections,
}

// derivedFrom maps a derived list onto the raw list it is built from.
var derivedFrom = map[string]string{
	FeedProviders:   Gateways,
	BrokerProviders: Accounts,
}

var defaultTTL = map[string]time.Duration{
	Exchanges:        72 * time.Hour,
	ExecutionSchemes: 72 * time.Hour,
	Accounts:         72 * time.Hour,
	Gateways:         72 * time.Hour,
	Schedules:        72 * time.Hour,
	Currencies:       72 * time.Hour,
	Sections:         120 * time.Minute,
	Tree:             120 * time.Minute,
}

// TTL returns the default cache lifetime of a list.
func TTL(list string) time.Duration {
	if raw, ok := derivedFrom[list]; ok {
		list = raw
	}
	return defaultTTL[list]
}

var rootFolders = map[string]string{
	EnvProd:  "0509b7989c5a565c815c6ef657454f2d",
	EnvDemo:  "0509b7989c5a565c815c6ef657454f2d",
	EnvStage: "0509b7989c5a565c815c6ef657454f2d",
	EnvCProd: "2d1040e2962c4bab9fcf9d66af4bfb49",
}

// RootFolder returns the id of the tree root in env.
func RootFolder(env string) (string, bool) {
	id, ok := rootFolders[env]
	return id, ok
}

// Source fetches reference resources.
type Source interface {
	List(ctx context.Context, resource string) ([]model.Document, error)
}

// Option configures Lists.
type Option func(*Lists)

// WithStore caches lists in store.
func WithStore(store Store) Option {
	return func(l *Lists) { l.store = store }
}

// WithTTL overrides the lifetime of one list.
func WithTTL(list string, ttl time.Duration) Option {
	return func(l *Lists) { l.ttl[list] = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lists) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Lists holds the reference lists of one environment.
type Lists struct {
	env    string
	source Source
	store  Store
	logger *slog.Logger
	ttl    map[string]time.Duration

	mu  sync.RWMutex
	raw map[string][]model.Document
}

// New creates Lists for env reading from source.
func New(env string, source Source, opts ...Option) *Lists {
	l := &Lists{
		env:    env,
		source: source,
		logger: slog.Default(),
		ttl:    make(map[string]time.Duration),
		raw:    make(map[string][]model.Document),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Env returns the environment the lists belong to.
func (l *Lists) Env() string { return l.env }

// Store returns the configured store, or nil.
func (l *Lists) Store() Store { return l.store }

// TTL returns the effective lifetime of list.
func (l *Lists) TTL(list string) time.Duration {
	if d, ok := l.ttl[list]; ok {
		return d
	}
	return TTL(list)
}

// Load makes the given lists available, all raw lists when none are named.
// Lists already in memory are not reloaded.
func (l *Lists) Load(ctx context.Context, lists ...string) error {
	if len(lists) == 0 {
		for name := range rawLists {
			lists = append(lists, name)
		}
	}

	pending := make(map[string]bool, len(lists))
	for _, name := range lists {
		raw, err := rawName(name)
		if err != nil {
			return err
		}
		if !l.loaded(raw) {
			pending[raw] = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for raw := range pending {
		g.Go(func() error {
			docs, err := l.fetch(gctx, raw)
			if err != nil {
				return err
			}
			l.mu.Lock()
			l.raw[raw] = docs
			l.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// Reload drops the in-memory copy of lists and loads them from SymbolDB,
// bypassing the store.
func (l *Lists) Reload(ctx context.Context, lists ...string) error {
	for _, name := range lists {
		raw, err := rawName(name)
		if err != nil {
			return err
		}
		docs, err := l.source.List(ctx, rawLists[raw])
		if err != nil {
			return err
		}
		l.save(ctx, raw, docs)
		l.mu.Lock()
		l.raw[raw] = docs
		l.mu.Unlock()
	}
	return nil
}

// Docs returns the raw documents backing list, loading them if needed.
func (l *Lists) Docs(ctx context.Context, list string) ([]model.Document, error) {
	if err := l.Load(ctx, list); err != nil {
		return nil, err
	}
	raw, _ := rawName(list)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.raw[raw], nil
}

// Entries returns list rendered as display/id entries.
func (l *Lists) Entries(ctx context.Context, list string) ([]Entry, error) {
	docs, err := l.Docs(ctx, list)
	if err != nil {
		return nil, err
	}
	return render(list, docs), nil
}

// ExchangeName returns the short exchange name used in symbol ids. Only
// lists already loaded are consulted.
func (l *Lists) ExchangeName(id string) (string, bool) {
	doc, ok := l.lookup(Exchanges, id)
	if !ok {
		return "", false
	}
	name := doc.String("exchangeName")
	if name == "" {
		name = doc.Name()
	}
	return name, name != ""
}

// ScheduleTimezone returns the IANA zone of a schedule.
func (l *Lists) ScheduleTimezone(id string) (string, bool) {
	doc, ok := l.lookup(Schedules, id)
	if !ok {
		return "", false
	}
	tz := doc.String("timezone")
	return tz, tz != ""
}

// Find returns the entry of list with the given id.
func (l *Lists) Find(ctx context.Context, list, id string) (Entry, bool, error) {
	entries, err := l.Entries(ctx, list)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (l *Lists) lookup(list, id string) (model.Document, bool) {
	if id == "" {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, doc := range l.raw[list] {
		if doc.ID() == id {
			return doc, true
		}
	}
	return nil, false
}

func (l *Lists) loaded(raw string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.raw[raw]
	return ok
}

// fetch reads raw from the store, falling back to SymbolDB.
func (l *Lists) fetch(ctx context.Context, raw string) ([]model.Document, error) {
	ttl := l.TTL(raw)
	if l.store != nil {
		docs, ok, err := l.store.Load(ctx, l.env, raw, ttl)
		if err != nil {
			l.logger.Warn("reference cache unreadable", "list", raw, "error", err)
		}
		if ok {
			return docs, nil
		}
		l.logger.Info("reference cache missing or stale", "list", raw, "env", storageEnv(l.env))
	}

	docs, err := l.source.List(ctx, rawLists[raw])
	if err != nil {
		return nil, err
	}
	l.save(ctx, raw, docs)
	return docs, nil
}

func (l *Lists) save(ctx context.Context, raw string, docs []model.Document) {
	if l.store == nil {
		return
	}
	if err := l.store.Save(ctx, l.env, raw, docs, l.TTL(raw)); err != nil {
		l.logger.Warn("reference cache not updated", "list", raw, "error", err)
	}
}

func rawName(list string) (string, error) {
	if raw, ok := derivedFrom[list]; ok {
		return raw, nil
	}
	if _, ok := rawLists[list]; ok {
		return list, nil
	}
	return "", fmt.Errorf("unknown reference list %q", list)
}

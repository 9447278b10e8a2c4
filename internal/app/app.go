// Package app wires the SymbolDB client, reference lists, tree and resolver
// from configuration for the command line tools.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rickgao/symboldb-tools/internal/config"
	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/naming"
	"github.com/rickgao/symboldb-tools/internal/reflist"
	"github.com/rickgao/symboldb-tools/internal/schema"
	"github.com/rickgao/symboldb-tools/internal/sdb"
	"github.com/rickgao/symboldb-tools/internal/series"
	"github.com/rickgao/symboldb-tools/internal/tree"
)

// App holds the collaborators shared by one run of a tool.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Client    *sdb.Client
	Lists     *reflist.Lists
	Resolver  *inherit.Resolver
	Namer     *naming.Namer
	Validator *schema.Validator // nil when validation is switched off

	store reflist.Store
	close func() error
}

// Open builds an App from cfg. Close releases the cache store.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.SDB.URL
	if baseURL == "" {
		baseURL = sdb.BaseURL(cfg.SDB.Env)
	}
	client := sdb.NewClient(baseURL, cfg.SDB.SessionID,
		sdb.WithLogger(logger),
		sdb.WithTimeout(cfg.SDB.Timeout),
		sdb.WithRetries(cfg.SDB.MaxRetries, cfg.SDB.RetryBackoff),
		sdb.WithRateLimit(cfg.SDB.RateLimit, cfg.SDB.RateBurst),
	)

	a := &App{
		Config: cfg,
		Logger: logger,
		Client: client,
		close:  func() error { return nil },
	}

	switch cfg.Cache.Backend {
	case "badger":
		store, err := reflist.OpenBadgerStore(filepath.Join(cfg.Cache.Dir, "badger"))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		a.store = store
		a.close = store.Close
	default:
		a.store = reflist.NewFileStore(cfg.Cache.Dir)
	}

	opts := []reflist.Option{reflist.WithStore(a.store), reflist.WithLogger(logger)}
	for list, ttl := range cfg.Cache.TTL {
		opts = append(opts, reflist.WithTTL(list, ttl))
	}
	a.Lists = reflist.New(cfg.SDB.Env, client, opts...)

	a.Resolver = inherit.NewResolver(client,
		inherit.WithConcurrency(cfg.SDB.Concurrency),
		inherit.WithLogger(logger),
	)
	a.Namer = naming.NewNamer(a.Lists, a.Resolver)
	if !cfg.Series.SkipValidation {
		a.Validator = schema.NewValidator(logger)
	}

	logger.Debug("symboldb client ready",
		"url", baseURL,
		"env", cfg.SDB.Env,
		"cache", cfg.Cache.Backend,
	)
	return a, nil
}

// Close releases the cache store.
func (a *App) Close() error {
	return a.close()
}

// Tree loads the instrument tree, from the cache when it is fresh.
func (a *App) Tree(ctx context.Context, reload bool) (*tree.Tree, error) {
	t, err := tree.Load(ctx, a.Client, tree.LoadOptions{
		Env:    a.Config.SDB.Env,
		Store:  a.store,
		TTL:    a.Lists.TTL(reflist.Tree),
		Reload: reload,
		Logger: a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	return t, nil
}

// SeriesDeps returns the collaborators of the expiration manager over t.
func (a *App) SeriesDeps(t *tree.Tree) series.Deps {
	return series.Deps{
		Store:     a.Client,
		Tree:      t,
		Compiler:  a.Resolver,
		Validator: a.Validator,
		Logger:    a.Logger,
	}
}

// LoaderConfig returns the bulk loader bounds from configuration.
func (a *App) LoaderConfig() series.LoaderConfig {
	return series.LoaderConfig{
		Concurrency: a.Config.Series.Concurrency,
		Timeout:     a.Config.Series.Timeout,
	}
}

package series

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Request names one series to load.
type Request struct {
	Ticker   string
	Exchange string
	Options  Options
	Create   bool // start from scratch with New instead of Load
}

// Loaded is the outcome of one Request.
type Loaded struct {
	Request Request
	Series  *Series
	Err     error
}

// LoaderConfig bounds bulk operations.
type LoaderConfig struct {
	Concurrency int           // series handled at once (default: 8)
	Timeout     time.Duration // per series (default: 2m)
}

// DefaultLoaderConfig returns sensible defaults.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Concurrency: 8,
		Timeout:     2 * time.Minute,
	}
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	d := DefaultLoaderConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// LoadAll loads many series concurrently. A failing series does not stop
// the others; its error is on its Loaded entry. Results keep request order.
func LoadAll(ctx context.Context, deps Deps, reqs []Request, cfg LoaderConfig) []Loaded {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	out := make([]Loaded, len(reqs))
	var loaded, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			out[i].Request = req
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				failed.Add(1)
				return nil
			}

			sctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			load := Load
			if req.Create {
				load = New
			}
			s, err := load(sctx, deps, req.Ticker, req.Exchange, req.Options)
			if err != nil {
				logger.Warn("failed to load series",
					"series", req.Ticker+"."+req.Exchange,
					"err", err,
				)
				out[i].Err = err
				failed.Add(1)
				return nil
			}
			out[i].Series = s
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("series load complete",
		"requested", len(reqs),
		"loaded", loaded.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)
	return out
}

// CommitAll commits many series concurrently and merges their reports.
// Errors of individual series are joined; their reports are left out.
func CommitAll(ctx context.Context, list []*Series, dryRun bool, cfg LoaderConfig) (Report, error) {
	cfg = cfg.withDefaults()

	var (
		mu     sync.Mutex
		report = Report{}
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for _, s := range list {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			r, err := s.Commit(sctx, dryRun)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			report.Merge(r)
			return nil
		})
	}
	_ = g.Wait()

	return report, errors.Join(errs...)
}

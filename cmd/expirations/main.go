// Command expirations adds expirations to SymbolDB series and commits them.
//
//	expirations -config configs/symboldb.yaml -series ES.CME \
//	    -add 2023-12-15:Z2023 -add 2024-03-15:H2024 -dry-run=false
//
// Calendar spreads take -add DATE:NEAR-FAR. Options take -calls and -puts.
// The commit report is printed to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/rickgao/symboldb-tools/internal/app"
	"github.com/rickgao/symboldb-tools/internal/config"
	"github.com/rickgao/symboldb-tools/internal/logging"
	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/series"
	"github.com/rickgao/symboldb-tools/internal/version"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type expirationArg struct {
	date      string
	maturity  string
	near, far string
}

func main() {
	var seriesNames, adds listFlag
	configPath := flag.String("config", "configs/symboldb.yaml", "path to config file")
	flag.Var(&seriesNames, "series", "series as TICKER.EXCHANGE (repeatable)")
	flag.Var(&adds, "add", "expiration as DATE:MATURITY, or DATE:NEAR-FAR for calendar spreads (repeatable)")
	kindName := flag.String("kind", "future", "future, option, calendar_spread or product_spread")
	calls := flag.String("calls", "", "comma separated call strikes for options")
	puts := flag.String("puts", "", "comma separated put strikes for options")
	create := flag.Bool("create", false, "create the series folder from scratch")
	shortName := flag.String("short-name", "", "series description when creating")
	update := flag.Bool("update", false, "update existing contracts instead of skipping them")
	overwrite := flag.Bool("overwrite", false, "rebuild existing contracts from scratch")
	reload := flag.Bool("reload", false, "bypass the cached instrument tree")
	dryRun := flag.Bool("dry-run", true, "report what would change without writing")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, flush, err := logging.New(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer flush()
	slog.SetDefault(logger)

	logger.Info("starting expirations",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"dry_run", *dryRun,
	)

	if err := run(logger, cfg, runArgs{
		series:    seriesNames,
		adds:      adds,
		kind:      *kindName,
		calls:     *calls,
		puts:      *puts,
		create:    *create,
		shortName: *shortName,
		update:    *update,
		overwrite: *overwrite,
		reload:    *reload,
		dryRun:    *dryRun,
	}); err != nil {
		logger.Error("expirations failed", "error", err)
		flush()
		os.Exit(1)
	}
}

type runArgs struct {
	series, adds []string
	kind         string
	calls, puts  string
	create       bool
	shortName    string
	update       bool
	overwrite    bool
	reload       bool
	dryRun       bool
}

func run(logger *slog.Logger, cfg *config.Config, args runArgs) error {
	kind, err := series.ParseKind(args.kind)
	if err != nil {
		return err
	}
	if len(args.series) == 0 {
		return errors.New("at least one -series is required")
	}
	exps := make([]expirationArg, 0, len(args.adds))
	for _, raw := range args.adds {
		e, err := parseExpiration(raw, kind == series.KindCalendarSpread)
		if err != nil {
			return err
		}
		exps = append(exps, e)
	}
	opts, err := addOptions(kind, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.Tree(ctx, args.reload)
	if err != nil {
		return err
	}

	reqs := make([]series.Request, 0, len(args.series))
	for _, name := range args.series {
		ticker, exchange, ok := strings.Cut(name, ".")
		if !ok || ticker == "" || exchange == "" {
			return fmt.Errorf("series %q is not TICKER.EXCHANGE", name)
		}
		reqs = append(reqs, series.Request{
			Ticker:   ticker,
			Exchange: exchange,
			Create:   args.create,
			Options:  series.Options{Kind: kind, ShortName: args.shortName},
		})
	}

	var loaded []*series.Series
	var errs []error
	for _, l := range series.LoadAll(ctx, a.SeriesDeps(t), reqs, a.LoaderConfig()) {
		name := l.Request.Ticker + "." + l.Request.Exchange
		if l.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, l.Err))
			continue
		}
		for _, e := range exps {
			res, err := addExpiration(ctx, l.Series, e, opts)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			if !res.Empty() {
				logger.Info("expiration added",
					"series", name,
					"created", res.Created,
					"updated", res.Updated,
					"diff", len(res.Diff),
				)
			}
			for _, fe := range res.ValidationErrors {
				logger.Warn("validation failed", "series", name, "field", fe.Field, "error", fe.Message)
			}
		}
		loaded = append(loaded, l.Series)
	}

	report, err := series.CommitAll(ctx, loaded, args.dryRun, a.LoaderConfig())
	if err != nil {
		errs = append(errs, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		errs = append(errs, fmt.Errorf("write report: %w", err))
	}
	return errors.Join(errs...)
}

func addExpiration(ctx context.Context, s *series.Series, e expirationArg, opts []series.AddOption) (series.Result, error) {
	if e.near != "" {
		return s.AddSpread(ctx, e.date, e.near, e.far, opts...)
	}
	return s.Add(ctx, e.date, e.maturity, opts...)
}

// parseExpiration splits DATE:MATURITY or DATE:NEAR-FAR.
func parseExpiration(raw string, calendar bool) (expirationArg, error) {
	date, mat, ok := strings.Cut(raw, ":")
	if !ok || mat == "" {
		return expirationArg{}, fmt.Errorf("-add %q is not DATE:MATURITY", raw)
	}
	if _, ok := maturity.NormalizeDate(date); !ok {
		return expirationArg{}, fmt.Errorf("-add %q: bad date %q", raw, date)
	}
	e := expirationArg{date: date, maturity: mat}
	if calendar {
		near, far, ok := cutLegs(mat)
		if !ok {
			return expirationArg{}, fmt.Errorf("-add %q is not DATE:NEAR-FAR", raw)
		}
		e.maturity, e.near, e.far = "", near, far
	}
	return e, nil
}

// cutLegs splits NEAR-FAR where either side may itself be YYYY-MM.
func cutLegs(s string) (string, string, bool) {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	case 4:
		return parts[0] + "-" + parts[1], parts[2] + "-" + parts[3], true
	case 3:
		if len(parts[0]) == 4 {
			return parts[0] + "-" + parts[1], parts[2], true
		}
		return parts[0], parts[1] + "-" + parts[2], true
	}
	return "", "", false
}

func addOptions(kind series.Kind, args runArgs) ([]series.AddOption, error) {
	var opts []series.AddOption
	switch {
	case args.overwrite:
		opts = append(opts, series.OverwriteOld())
	case args.update:
		opts = append(opts, series.SkipIfExists(false))
	}
	if kind != series.KindOption {
		return opts, nil
	}
	call, err := parseStrikes(args.calls)
	if err != nil {
		return nil, fmt.Errorf("-calls: %w", err)
	}
	put, err := parseStrikes(args.puts)
	if err != nil {
		return nil, fmt.Errorf("-puts: %w", err)
	}
	return append(opts, series.WithStrikes(series.Strikes{Call: call, Put: put})), nil
}

// parseStrikes reads comma separated prices exactly as written.
func parseStrikes(s string) ([]series.StrikeInput, error) {
	if s == "" {
		return nil, nil
	}
	var out []series.StrikeInput
	for _, f := range strings.Split(s, ",") {
		price, err := decimal.NewFromString(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, series.StrikeInput{Price: price})
	}
	return out, nil
}

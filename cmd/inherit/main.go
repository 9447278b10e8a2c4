// Command inherit prints compiled SymbolDB documents with their symbol id
// and expiry time.
//
//	inherit -config configs/symboldb.yaml -id 4f6c0a2e-... -id 91b2...
//	inherit -config configs/symboldb.yaml -doc draft.json
//
// A -doc file holds one document, compiled over the ancestors named by its
// path, or an array of documents compiled as a chain with the last one as
// the target.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rickgao/symboldb-tools/internal/app"
	"github.com/rickgao/symboldb-tools/internal/config"
	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/logging"
	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/reflist"
	"github.com/rickgao/symboldb-tools/internal/version"
)

type idsFlag []string

func (f *idsFlag) String() string { return strings.Join(*f, ",") }

func (f *idsFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// request is what one run compiles.
type request struct {
	config string
	ids    []string
	doc    string // file with a document or a chain
	self   bool
	brief  bool
}

// output is one compiled document.
type output struct {
	ID         string         `json:"id"`
	SymbolID   string         `json:"symbolId,omitempty"`
	ExpiryTime string         `json:"expiryTime,omitempty"`
	Compiled   model.Document `json:"compiled,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func parseArgs(args []string) (request, error) {
	var ids idsFlag
	fs := flag.NewFlagSet("inherit", flag.ContinueOnError)
	configPath := fs.String("config", "configs/symboldb.yaml", "path to config file")
	fs.Var(&ids, "id", "instrument id (repeatable)")
	doc := fs.String("doc", "", "JSON file with a document or a chain of documents")
	self := fs.Bool("self", true, "merge the document itself on top of its ancestors")
	brief := fs.Bool("brief", false, "omit the compiled document")
	if err := fs.Parse(args); err != nil {
		return request{}, err
	}
	if len(ids) == 0 && *doc == "" {
		return request{}, errors.New("at least one -id or a -doc is required")
	}
	return request{config: *configPath, ids: ids, doc: *doc, self: *self, brief: *brief}, nil
}

func main() {
	req, err := parseArgs(os.Args[1:])
	if err != nil {
		slog.Error("bad arguments", "error", err)
		os.Exit(2)
	}

	cfg, err := config.LoadAndValidate(req.config)
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

	logger.Debug("starting inherit",
		"version", version.String(),
		"ids", len(req.ids),
		"doc", req.doc,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open symboldb", "error", err)
		flush()
		os.Exit(1)
	}
	defer a.Close()

	if err := run(ctx, a, req, os.Stdout); err != nil {
		logger.Error("inherit failed", "error", err)
		a.Close()
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, req request, w io.Writer) error {
	if err := a.Lists.Load(ctx, reflist.Exchanges, reflist.Schedules); err != nil {
		return fmt.Errorf("load reference lists: %w", err)
	}

	type job struct {
		name    string
		payload inherit.Payload
	}
	jobs := make([]job, 0, len(req.ids)+1)
	for _, id := range req.ids {
		jobs = append(jobs, job{name: id, payload: inherit.ByID(id)})
	}
	if req.doc != "" {
		p, err := readPayload(req.doc)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{name: req.doc, payload: p})
	}

	cache := inherit.NewCache()
	var errs []error
	outs := make([]output, 0, len(jobs))
	for _, j := range jobs {
		out, err := describe(ctx, a, j.payload, req.self, cache)
		if out.ID == "" {
			out.ID = j.name
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
			out.Error = err.Error()
		}
		if req.brief {
			out.Compiled = nil
		}
		outs = append(outs, out)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outs); err != nil {
		errs = append(errs, fmt.Errorf("write output: %w", err))
	}
	return errors.Join(errs...)
}

// readPayload reads a document or, for a JSON array, a chain.
func readPayload(path string) (inherit.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return inherit.Payload{}, fmt.Errorf("read document: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var chain []model.Document
		if err := json.Unmarshal(data, &chain); err != nil {
			return inherit.Payload{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return inherit.ByChain(chain...), nil
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return inherit.Payload{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return inherit.ByDocument(doc), nil
}

func describe(ctx context.Context, a *app.App, p inherit.Payload, self bool, cache *inherit.Cache) (output, error) {
	var out output
	compiled, err := a.Resolver.Build(ctx, p, self, cache)
	if err != nil {
		return out, err
	}
	if len(compiled) == 0 {
		return out, errors.New("document not found")
	}
	out.ID = compiled.ID()
	out.Compiled = compiled
	if !self {
		return out, nil
	}

	if out.SymbolID, _, err = a.Namer.SymbolID(ctx, compiled, true, "", cache); err != nil {
		return out, fmt.Errorf("symbol id: %w", err)
	}
	if out.ExpiryTime, _, err = a.Namer.ExpiryTime(ctx, compiled, true, cache); err != nil {
		return out, fmt.Errorf("expiry time: %w", err)
	}
	return out, nil
}

package inherit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// DefaultConcurrency bounds concurrent ancestor fetches.
const DefaultConcurrency = 8

// identityKeys are stripped from compiled output unless the target's own
// fields were requested.
var identityKeys = []string{
	model.KeyRev,
	model.KeyLastUpdateTime,
	model.KeyID,
	model.KeyCreationTime,
	model.KeyName,
}

// Store fetches documents the cache does not hold. A missing document is an
// empty Document with a nil error.
type Store interface {
	Get(ctx context.Context, id string, fields ...string) (model.Document, error)
	Parents(ctx context.Context, id string, fields ...string) ([]model.Document, error)
}

type payloadKind int

const (
	payloadID payloadKind = iota + 1
	payloadDocument
	payloadChain
)

// Payload selects what to compile: an id, a document or an explicit chain.
type Payload struct {
	kind  payloadKind
	id    string
	doc   model.Document
	chain []model.Document
}

// ByID compiles the stored document with the given id.
func ByID(id string) Payload { return Payload{kind: payloadID, id: id} }

// ByDocument compiles an in-memory document, saved or not.
func ByDocument(doc model.Document) Payload { return Payload{kind: payloadDocument, doc: doc} }

// ByChain compiles an explicit ancestor chain whose last element is the target.
func ByChain(docs ...model.Document) Payload { return Payload{kind: payloadChain, chain: docs} }

// Resolver compiles documents with their ancestors.
type Resolver struct {
	store       Store
	schema      Object
	legacy      bool
	concurrency int
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSchema replaces the default field strategies.
func WithSchema(schema Object) Option {
	return func(r *Resolver) {
		r.schema = schema
	}
}

// WithLegacyListDetection enables the marker-based detection of identified
// lists for fields that have no declared strategy.
func WithLegacyListDetection() Option {
	return func(r *Resolver) {
		r.legacy = true
	}
}

// WithConcurrency bounds concurrent ancestor fetches.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		r.concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:       store,
		schema:      DefaultSchema(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Build returns the compiled document for payload. With includeSelf the
// target's own fields, identity fields included, are part of the result;
// otherwise only its ancestors are merged and identity fields are stripped.
// An unknown id yields an empty document. cache may be nil.
func (r *Resolver) Build(ctx context.Context, p Payload, includeSelf bool, cache *Cache) (model.Document, error) {
	if cache == nil {
		cache = NewCache()
	}

	var (
		target  model.Document
		parents []model.Document
		err     error
	)

	switch p.kind {
	case payloadID:
		target, err = r.fetch(ctx, p.id, cache)
		if err != nil {
			return nil, err
		}
		if target.ID() == "" {
			return model.Document{}, nil
		}
	case payloadDocument:
		if p.doc == nil {
			return model.Document{}, nil
		}
		target = p.doc.Clone()
	case payloadChain:
		if len(p.chain) == 0 {
			return model.Document{}, nil
		}
		chain := sortChain(p.chain)
		target = chain[len(chain)-1]
		parents = chain[:len(chain)-1]
	default:
		return model.Document{}, nil
	}

	if p.kind != payloadChain {
		if target.ID() == "" {
			parents, err = r.pathDocuments(ctx, target.Path(), cache)
		} else {
			parents, err = r.ancestors(ctx, target, cache)
		}
		if err != nil {
			return nil, err
		}
	}

	if includeSelf {
		parents = append(parents, target)
	}

	m := merger{legacy: r.legacy}
	compiled := map[string]any{}
	for _, doc := range parents {
		compiled = m.mergeObject(r.schema, doc, compiled)
	}

	out := model.Document(compiled)
	if !includeSelf {
		for _, k := range identityKeys {
			delete(out, k)
		}
	}
	return out, nil
}

// fetch returns a cached copy or loads the document from the store.
func (r *Resolver) fetch(ctx context.Context, id string, cache *Cache) (model.Document, error) {
	if doc, ok := cache.Get(id); ok {
		return doc, nil
	}
	doc, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	cache.Extend(doc)
	return doc.Clone(), nil
}

// ancestors returns the chain above a saved document, root first.
func (r *Resolver) ancestors(ctx context.Context, target model.Document, cache *Cache) ([]model.Document, error) {
	path := target.Path()
	var above []string
	if len(path) > 0 {
		above = path[:len(path)-1]
	}

	var docs []model.Document
	if cache.Has(above...) {
		for _, id := range above {
			doc, _ := cache.Get(id)
			docs = append(docs, doc)
		}
	} else {
		fetched, err := r.store.Parents(ctx, target.ID())
		if err != nil {
			return nil, fmt.Errorf("get parents of %s: %w", target.ID(), err)
		}
		cache.Extend(fetched...)
		for _, doc := range fetched {
			if doc.ID() == target.ID() {
				continue
			}
			docs = append(docs, doc.Clone())
		}
	}

	sortByDepth(docs)
	return docs, nil
}

// pathDocuments loads every id of path, fetching the uncached ones concurrently.
func (r *Resolver) pathDocuments(ctx context.Context, path []string, cache *Cache) ([]model.Document, error) {
	docs := make([]model.Document, len(path))
	var missing []int
	for i, id := range path {
		if doc, ok := cache.Get(id); ok {
			docs[i] = doc
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		r.logger.Debug("fetching ancestors", "count", len(missing))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for _, i := range missing {
			id := path[i]
			g.Go(func() error {
				doc, err := r.store.Get(gctx, id)
				if err != nil {
					return fmt.Errorf("get %s: %w", id, err)
				}
				cache.Extend(doc)
				docs[i] = doc.Clone()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID() != "" {
			out = append(out, d)
		}
	}
	sortByDepth(out)
	return out, nil
}

// sortChain clones the chain and orders saved documents by depth, followed by
// unsaved ones by depth.
func sortChain(chain []model.Document) []model.Document {
	var saved, unsaved []model.Document
	for _, d := range chain {
		if d.ID() != "" {
			saved = append(saved, d.Clone())
		} else {
			unsaved = append(unsaved, d.Clone())
		}
	}
	sortByDepth(saved)
	sortByDepth(unsaved)
	return append(saved, unsaved...)
}

func sortByDepth(docs []model.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return len(docs[i].Path()) < len(docs[j].Path())
	})
}

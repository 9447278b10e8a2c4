package tree

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/btree"

	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/reflist"
)

// AmbiguousPathError is returned when a name path matches several nodes.
type AmbiguousPathError struct {
	Path []string
	IDs  []string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("ambiguous path %s (%d choices)", strings.Join(e.Path, "/"), len(e.IDs))
}

// Source fetches the reduced tree.
type Source interface {
	Tree(ctx context.Context, fields ...string) ([]model.Document, error)
}

// Tree is an in-memory index of tree nodes.
type Tree struct {
	mu       sync.RWMutex
	nodes    *btree.Map[string, model.Document]
	children map[string][]string
}

// New indexes docs. Nodes without an id are skipped.
func New(docs []model.Document) *Tree {
	t := &Tree{
		nodes:    btree.NewMap[string, model.Document](64),
		children: make(map[string][]string),
	}
	for _, doc := range docs {
		t.addLocked(doc)
	}
	return t
}

// LoadOptions controls Load.
type LoadOptions struct {
	Env    string
	Fields []string
	Store  reflist.Store
	TTL    time.Duration
	Reload bool
	Logger *slog.Logger
}

// Load reads the tree from the store when fresh, otherwise from source,
// writing the fetched copy back to the store.
func Load(ctx context.Context, source Source, opts LoadOptions) (*Tree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = reflist.TTL(reflist.Tree)
	}
	list := cacheName(opts.Fields)

	if opts.Store != nil && !opts.Reload {
		docs, ok, err := opts.Store.Load(ctx, opts.Env, list, ttl)
		if err != nil {
			logger.Warn("tree cache unreadable", "error", err)
		}
		if ok {
			logger.Debug("tree loaded from cache", "nodes", len(docs))
			return New(docs), nil
		}
	}

	docs, err := source.Tree(ctx, opts.Fields...)
	if err != nil {
		return nil, err
	}
	if opts.Store != nil {
		if err := opts.Store.Save(ctx, opts.Env, list, docs, ttl); err != nil {
			logger.Warn("tree cache not updated", "error", err)
		}
	}
	logger.Debug("tree loaded from symboldb", "nodes", len(docs))
	return New(docs), nil
}

// cacheName keys trees loaded with extra fields apart from the plain one.
func cacheName(fields []string) string {
	if len(fields) == 0 {
		return reflist.Tree
	}
	sorted := slices.Clone(fields)
	slices.Sort(sorted)
	return reflist.Tree + "-" + strings.Join(sorted, "-")
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes.Len()
}

// Get returns a copy of the node with id.
func (t *Tree) Get(id string) (model.Document, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	doc, ok := t.nodes.Get(id)
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Add inserts or replaces a node, typically after it was created.
func (t *Tree) Add(doc model.Document) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addLocked(doc)
}

func (t *Tree) addLocked(doc model.Document) {
	id := doc.ID()
	if id == "" {
		return
	}
	if old, ok := t.nodes.Get(id); ok {
		parent := parentOf(old)
		t.children[parent] = slices.DeleteFunc(t.children[parent], func(c string) bool { return c == id })
	}
	t.nodes.Set(id, doc.Clone())
	parent := parentOf(doc)
	t.children[parent] = append(t.children[parent], id)
}

// parentOf returns the parent id, "" for top-level nodes.
func parentOf(doc model.Document) string {
	path := doc.Path()
	if len(path) < 2 {
		return ""
	}
	return path[len(path)-2]
}

// Children returns the direct children of id ordered by name.
func (t *Tree) Children(id string) []model.Document {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.childrenLocked(id)
}

func (t *Tree) childrenLocked(id string) []model.Document {
	ids := t.children[id]
	out := make([]model.Document, 0, len(ids))
	for _, c := range ids {
		if doc, ok := t.nodes.Get(c); ok {
			out = append(out, doc.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.Document) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Heirs returns the children of id, and their descendants when recursive,
// in depth-first order.
func (t *Tree) Heirs(id string, recursive bool) []model.Document {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []model.Document
	var walk func(string)
	walk = func(parent string) {
		for _, child := range t.childrenLocked(parent) {
			out = append(out, child)
			if recursive {
				walk(child.ID())
			}
		}
	}
	walk(id)
	return out
}

// UUIDByPath resolves a path of names from the top level down. It returns
// "" when a level has no match and *AmbiguousPathError when a level matches
// more than one node.
func (t *Tree) UUIDByPath(names []string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	parent := ""
	for level, name := range names {
		var matches []string
		for _, id := range t.children[parent] {
			doc, ok := t.nodes.Get(id)
			if !ok || doc.Name() != name || len(doc.Path()) != level+1 {
				continue
			}
			matches = append(matches, id)
		}
		switch len(matches) {
		case 0:
			return "", nil
		case 1:
			parent = matches[0]
		default:
			slices.Sort(matches)
			return "", &AmbiguousPathError{Path: slices.Clone(names[:level+1]), IDs: matches}
		}
	}
	return parent, nil
}

// FindSeries returns the abstract node named ticker somewhere below
// parentID. The shallowest match wins; several at that depth are ambiguous.
func (t *Tree) FindSeries(ticker, parentID string) (model.Document, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best []model.Document
	depth := 0
	t.nodes.Scan(func(_ string, doc model.Document) bool {
		if !doc.IsAbstract() || doc.Name() != ticker {
			return true
		}
		path := doc.Path()
		if !slices.Contains(path[:max(len(path)-1, 0)], parentID) {
			return true
		}
		switch {
		case len(best) == 0 || len(path) < depth:
			best = []model.Document{doc}
			depth = len(path)
		case len(path) == depth:
			best = append(best, doc)
		}
		return true
	})

	switch len(best) {
	case 0:
		return nil, nil
	case 1:
		return best[0].Clone(), nil
	default:
		ids := make([]string, len(best))
		for i, d := range best {
			ids[i] = d.ID()
		}
		return nil, &AmbiguousPathError{Path: []string{parentID, ticker}, IDs: ids}
	}
}

// PathNames renders a path of ids as names, leaving unknown ids as is.
func (t *Tree) PathNames(path []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = id
		if doc, ok := t.nodes.Get(id); ok && doc.Name() != "" {
			out[i] = doc.Name()
		}
	}
	return out
}

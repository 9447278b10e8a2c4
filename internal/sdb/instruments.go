package sdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// TreeFields are always requested with the tree.
var TreeFields = []string{"path", "name", "_id", "isTrading", "isAbstract"}

// heirFields are always requested with non-full heirs.
var heirFields = []string{"_id", "name", "isAbstract", "path"}

// heirConcurrency bounds recursive heir requests.
const heirConcurrency = 8

// Revision is returned by single-document writes.
type Revision struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
}

// HeirsOptions selects what Heirs returns.
type HeirsOptions struct {
	Full      bool     // whole documents instead of the heir fields
	Recursive bool     // descend into abstract children
	Fields    []string // extra fields when not Full
	Name      string   // symbolId regexp filter on the first level
}

// Get returns the document with the given id, or an empty document if it
// does not exist.
func (c *Client) Get(ctx context.Context, id string, fields ...string) (model.Document, error) {
	query := url.Values{}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}

	var doc model.Document
	err := c.get(ctx, "/instruments/"+url.PathEscape(id), query, &doc)
	if err != nil {
		if IsNotFound(err) || isBadRequest(err) {
			return model.Document{}, nil
		}
		return nil, fmt.Errorf("get instrument %s: %w", id, err)
	}
	if doc == nil {
		doc = model.Document{}
	}
	return doc, nil
}

// Parents returns the document with the given id and all of its ancestors.
func (c *Client) Parents(ctx context.Context, id string, fields ...string) ([]model.Document, error) {
	query := url.Values{"childId": {id}}
	if len(fields) > 0 {
		query.Set("fields", joinFields(fields, []string{"_id", "name", "path"}))
	}

	var docs []model.Document
	if err := c.get(ctx, "/instruments", query, &docs); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parents of %s: %w", id, err)
	}
	return docs, nil
}

// Heirs returns the children of id, recursively when requested.
func (c *Client) Heirs(ctx context.Context, id string, opts HeirsOptions) ([]model.Document, error) {
	query := url.Values{"parentId": {id}}
	if !opts.Full {
		query.Set("fields", joinFields(opts.Fields, heirFields))
	}
	if opts.Name != "" {
		query.Set("symbolId_regexp", opts.Name)
	}

	var level []model.Document
	if err := c.get(ctx, "/instruments", query, &level); err != nil {
		return nil, fmt.Errorf("get heirs of %s: %w", id, err)
	}
	if !opts.Recursive {
		return level, nil
	}

	var (
		mu     sync.Mutex
		deeper []model.Document
	)
	sub := opts
	sub.Name = ""

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(heirConcurrency)
	for _, doc := range level {
		if !doc.IsAbstract() {
			continue
		}
		childID := doc.ID()
		g.Go(func() error {
			docs, err := c.Heirs(gctx, childID, sub)
			if err != nil {
				return err
			}
			mu.Lock()
			deeper = append(deeper, docs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return append(level, deeper...), nil
}

// Tree returns every node reduced to TreeFields plus the given fields. A
// single "all" field requests whole documents.
func (c *Client) Tree(ctx context.Context, fields ...string) ([]model.Document, error) {
	query := url.Values{}
	if len(fields) != 1 || fields[0] != "all" {
		query.Set("fields", joinFields(fields, TreeFields))
	}

	var docs []model.Document
	if err := c.get(ctx, "/instruments", query, &docs); err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return docs, nil
}

// Create stores a new document.
func (c *Client) Create(ctx context.Context, doc model.Document) (Revision, error) {
	var rev Revision
	if err := c.post(ctx, "/instruments", doc, &rev); err != nil {
		return Revision{}, fmt.Errorf("create instrument %s: %w", doc.Name(), err)
	}
	if rev.ID == "" {
		return Revision{}, fmt.Errorf("create instrument %s: response has no _id", doc.Name())
	}
	return rev, nil
}

// Update stores a new revision of an existing document.
func (c *Client) Update(ctx context.Context, doc model.Document) (Revision, error) {
	id := doc.ID()
	if id == "" {
		return Revision{}, fmt.Errorf("update instrument %s: document has no _id", doc.Name())
	}
	var rev Revision
	if err := c.post(ctx, "/instruments/"+url.PathEscape(id), doc, &rev); err != nil {
		return Revision{}, fmt.Errorf("update instrument %s: %w", id, err)
	}
	return rev, nil
}

func isBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// joinFields merges extra and defaults without duplicates, extra first.
func joinFields(extra, defaults []string) string {
	seen := make(map[string]bool, len(extra)+len(defaults))
	out := make([]string, 0, len(extra)+len(defaults))
	for _, f := range append(append([]string(nil), extra...), defaults...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return strings.Join(out, ",")
}

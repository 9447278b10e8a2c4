package inherit

import (
	"sync"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Cache holds fetched documents by id for one top-level operation.
type Cache struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

// NewCache creates an empty cache seeded with docs.
func NewCache(docs ...model.Document) *Cache {
	c := &Cache{docs: make(map[string]model.Document)}
	c.Extend(docs...)
	return c
}

// Get returns a copy of the cached document.
func (c *Cache) Get(id string) (model.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Has reports whether every id is cached.
func (c *Cache) Has(ids ...string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range ids {
		if _, ok := c.docs[id]; !ok {
			return false
		}
	}
	return true
}

// Extend stores complete documents, replacing any previous copy with the same
// id. Documents missing an identity field are ignored.
func (c *Cache) Extend(docs ...model.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range docs {
		if !cacheable(d) {
			continue
		}
		c.docs[d.ID()] = d.Clone()
	}
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func cacheable(d model.Document) bool {
	if d.ID() == "" {
		return false
	}
	return d.Has(model.KeyID, model.KeyRev, model.KeyCreationTime, model.KeyLastUpdateTime)
}

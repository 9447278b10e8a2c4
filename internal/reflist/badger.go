package reflist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// BadgerStore keeps each list as one badger entry that expires after its TTL.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a badger database at path. An empty
// path opens an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // disable internal logging
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(env, list string) []byte {
	return []byte(storageEnv(env) + "/" + list)
}

// Load returns the list unless its entry has expired.
func (s *BadgerStore) Load(_ context.Context, env, list string, _ time.Duration) ([]model.Document, bool, error) {
	var docs []model.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(env, list))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &docs)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", list, err)
	}
	return docs, true, nil
}

// Save stores the list with ttl. A zero ttl never expires.
func (s *BadgerStore) Save(_ context.Context, env, list string, docs []model.Document, ttl time.Duration) error {
	val, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", list, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(badgerKey(env, list), val)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

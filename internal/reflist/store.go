package reflist

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rickgao/symboldb-tools/internal/model"
)

// Store persists raw list documents between runs.
type Store interface {
	// Load returns the cached documents. ok is false when the list is
	// missing or older than ttl.
	Load(ctx context.Context, env, list string, ttl time.Duration) (docs []model.Document, ok bool, err error)
	// Save replaces the cached documents.
	Save(ctx context.Context, env, list string, docs []model.Document, ttl time.Duration) error
}

// FileStore keeps lists as jsonl files under Dir.
type FileStore struct {
	Dir string
	now func() time.Time
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, now: time.Now}
}

func (s *FileStore) path(env, list string) string {
	return filepath.Join(s.Dir, storageEnv(env), list+".jsonl")
}

// Load reads the list file if it is younger than ttl.
func (s *FileStore) Load(_ context.Context, env, list string, ttl time.Duration) ([]model.Document, bool, error) {
	p := s.path(env, list)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", p, err)
	}
	if ttl > 0 && s.now().Sub(info.ModTime()) > ttl {
		return nil, false, nil
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	var docs []model.Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var doc model.Document
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			// A malformed file is treated as a miss and refreshed.
			return nil, false, nil
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("read %s: %w", p, err)
	}
	return docs, true, nil
}

// Save writes the list file atomically.
func (s *FileStore) Save(_ context.Context, env, list string, docs []model.Document, _ time.Duration) error {
	p := s.path(env, list)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), list+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, doc := range docs {
		line, err := doc.MarshalLine()
		if err != nil {
			tmp.Close()
			return fmt.Errorf("encode %s: %w", list, err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	return os.Rename(tmp.Name(), p)
}

// storageEnv maps environments sharing reference data onto one slot.
func storageEnv(env string) string {
	if env == EnvDemo {
		return EnvProd
	}
	return env
}

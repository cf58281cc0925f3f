package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
)

// DocumentStorage receives documents downloaded from providers.
type DocumentStorage interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (int64, error)
}

// DocumentKey is the storage key of one provider document.
func DocumentKey(prefix, ownerType, ownerID, reference, name string) string {
	return path.Join(prefix, ownerType, ownerID, reference, name)
}

// MemoryStorage keeps documents in memory.
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (s *MemoryStorage) Put(ctx context.Context, key string, _ string, body io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return 0, fmt.Errorf("store document %s: %w", key, err)
	}
	s.mu.Lock()
	s.docs[key] = buf.Bytes()
	s.mu.Unlock()
	return n, nil
}

func (s *MemoryStorage) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[key]
	return b, ok
}

func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DiscardStorage drains and drops documents. Used when document download is disabled.
type DiscardStorage struct{}

func (DiscardStorage) Put(_ context.Context, _ string, _ string, body io.Reader) (int64, error) {
	return io.Copy(io.Discard, body)
}

// StorageEnabled reports whether documents written to s are kept. Drivers skip
// downloading altogether when they are not.
func StorageEnabled(s DocumentStorage) bool {
	switch s.(type) {
	case nil, DiscardStorage, *DiscardStorage:
		return false
	}
	return true
}

// FileStorage writes documents below Root, the working directory when empty. Keys
// are slash separated, already carry the drivers' storage prefix, and must stay
// inside Root.
type FileStorage struct {
	Root string
}

func (s FileStorage) Put(ctx context.Context, key string, _ string, body io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return 0, fmt.Errorf("document key %q escapes storage root", key)
	}
	dst := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, fmt.Errorf("create document directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create document %s: %w", key, err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return 0, fmt.Errorf("store document %s: %w", key, err)
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		_ = os.Remove(f.Name())
		return 0, fmt.Errorf("store document %s: %w", key, err)
	}
	return n, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoEntry is returned by Store.Get when the key has no persisted entry.
var ErrNoEntry = errors.New("cache: entry not found")

// Store is the persisted tier of the cache. Payloads are JSON documents.
type Store interface {
	Get(ctx context.Context, key string) (payload []byte, createdAt time.Time, err error)
	Set(ctx context.Context, key string, payload []byte, createdAt time.Time) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type fileEntry struct {
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// FileStore persists entries as a single JSON document on disk. Every mutation
// rewrites the document through a temp file followed by a rename.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]fileEntry
}

func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		path:    path,
		entries: make(map[string]fileEntry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	// Malformed persisted state counts as no data, not an error.
	if err := json.Unmarshal(raw, &store.entries); err != nil {
		store.entries = make(map[string]fileEntry)
	}

	return store, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.entries[key]
	if !ok {
		return nil, time.Time{}, ErrNoEntry
	}
	return []byte(item.Payload), item.CreatedAt, nil
}

func (s *FileStore) Set(_ context.Context, key string, payload []byte, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = fileEntry{Payload: json.RawMessage(payload), CreatedAt: createdAt}
	return s.flush()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flush()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]fileEntry)
	return s.flush()
}

// flush rewrites the whole document atomically. Caller must hold s.mu.
func (s *FileStore) flush() error {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

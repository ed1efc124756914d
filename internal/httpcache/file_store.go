package httpcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/obentoo/project-summary/internal/common/logger"
)

// cacheFile is the JSON document stored on disk
type cacheFile struct {
	Entries map[string]*Entry `json:"entries"`
}

// FileStore keeps every entry in one JSON document, rewritten atomically
// after each change
type FileStore struct {
	path    string
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewFileStore opens or creates the JSON cache file. ".json" is appended
// to path unless it is already there. A corrupted file is logged and
// replaced on the next write.
func NewFileStore(path string) (*FileStore, error) {
	path = withExtension(path, ".json")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	store := &FileStore{
		path:    path,
		entries: make(map[string]*Entry),
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("ignoring HTTP cache %s: %v", path, err)
		store.entries = make(map[string]*Entry)
	}

	return store, nil
}

// Path returns the file the store writes to
func (s *FileStore) Path() string {
	return s.path
}

// load reads the cache from disk
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}

	if cf.Entries != nil {
		s.entries = cf.Entries
	}
	return nil
}

// saveUnsafe persists the cache to disk without locking.
// Caller must hold the write lock.
func (s *FileStore) saveUnsafe() error {
	data, err := json.MarshalIndent(cacheFile{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return cloneEntry(entry), nil
}

func (s *FileStore) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = cloneEntry(entry)
	return s.saveUnsafe()
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.saveUnsafe()
}

func (s *FileStore) HasFresh(ctx context.Context, method, url string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return anyFresh(s.entries, method, url, now), nil
}

func (s *FileStore) Purge(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !entry.Fresh(now) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveUnsafe()
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	return s.saveUnsafe()
}

func (s *FileStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return countStats(s.entries, now), nil
}

// Close is a no-op; every change is already on disk
func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)

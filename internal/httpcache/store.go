package httpcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrCacheMiss is returned when no entry exists for a key
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheCorrupted is returned when a stored entry cannot be decoded
	ErrCacheCorrupted = errors.New("cache is corrupted")
	// ErrUnknownBackend is returned by OpenStore for unsupported backends
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Store persists cache entries
type Store interface {
	// Get returns the entry for key, fresh or not, or ErrCacheMiss
	Get(ctx context.Context, key string) (*Entry, error)
	// Put inserts or replaces an entry
	Put(ctx context.Context, entry *Entry) error
	// Delete removes an entry; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// HasFresh reports whether any entry for method and url is fresh at
	// now, whatever request headers it was stored under
	HasFresh(ctx context.Context, method, url string, now time.Time) (bool, error)
	// Purge removes the entries that are stale at now and returns how many
	Purge(ctx context.Context, now time.Time) (int, error)
	// Clear removes every entry
	Clear(ctx context.Context) error
	// Stats counts fresh and stale entries at now
	Stats(ctx context.Context, now time.Time) (Stats, error)
	// Close releases the underlying resources
	Close() error
}

// Backend names accepted by OpenStore
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// OpenStore opens the named backend at path. The backend's file extension
// is appended to path unless it is already there.
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(path)
	case BackendJSON:
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// withExtension appends ext to path unless path already ends with one of
// the accepted extensions
func withExtension(path, ext string, accepted ...string) string {
	lower := strings.ToLower(path)
	for _, e := range append([]string{ext}, accepted...) {
		if strings.HasSuffix(lower, e) {
			return path
		}
	}
	return path + ext
}

// anyFresh scans entries for a fresh one matching method and url
func anyFresh(entries map[string]*Entry, method, url string, now time.Time) bool {
	for _, entry := range entries {
		if entry.Method == method && entry.URL == url && entry.Fresh(now) {
			return true
		}
	}
	return false
}

// countStats tallies entries for the in-process backends
func countStats(entries map[string]*Entry, now time.Time) Stats {
	var stats Stats
	for _, entry := range entries {
		stats.Total++
		if entry.Fresh(now) {
			stats.Fresh++
		} else {
			stats.Stale++
		}
	}
	return stats
}

// cloneEntry copies an entry so callers cannot mutate stored state
func cloneEntry(e *Entry) *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = append([]byte(nil), e.Body...)
	return &c
}

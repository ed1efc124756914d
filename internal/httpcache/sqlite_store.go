package httpcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key TEXT PRIMARY KEY,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	header TEXT NOT NULL,
	body BLOB,
	created_at INTEGER NOT NULL,
	expire_after INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS responses_url ON responses (url);
`

// freshClause selects rows that may be served at a given time (?1 = now)
const freshClause = `(expire_after < 0 OR (created_at <= ?1 AND created_at + expire_after > ?1))`

// SQLiteStore keeps entries in an SQLite database, one row per response
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database. ".sqlite" is appended to
// path unless it already ends in .sqlite, .sqlite3 or .db.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = withExtension(path, ".sqlite", ".sqlite3", ".db")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized within the process
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize %s: %w", path, err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file name
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, method, url, status, header, body, created_at, expire_after
		 FROM responses WHERE key = ?`, key)

	var (
		entry     Entry
		header    string
		createdAt int64
		expire    int64
	)
	err := row.Scan(&entry.Key, &entry.Method, &entry.URL, &entry.StatusCode,
		&header, &entry.Body, &createdAt, &expire)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	entry.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &entry.Header); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupted, key, err)
	}
	entry.CreatedAt = time.Unix(0, createdAt)
	entry.ExpireAfter = time.Duration(expire)
	return &entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses
		 (key, method, url, status, header, body, created_at, expire_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Key, entry.Method, entry.URL, entry.StatusCode, string(header),
		entry.Body, entry.CreatedAt.UnixNano(), int64(entry.ExpireAfter))
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) HasFresh(ctx context.Context, method, url string, now time.Time) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM responses
		 WHERE url = ?2 AND method = ?3 AND `+freshClause+`)`,
		now.UnixNano(), url, method).Scan(&found)
	if err != nil {
		return false, err
	}
	return found == 1, nil
}

func (s *SQLiteStore) Purge(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM responses WHERE NOT `+freshClause, now.UnixNano())
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	return int(removed), err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM responses`)
	return err
}

func (s *SQLiteStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN `+freshClause+` THEN 1 ELSE 0 END), 0)
		 FROM responses`, now.UnixNano()).Scan(&stats.Total, &stats.Fresh)
	if err != nil {
		return Stats{}, err
	}
	stats.Stale = stats.Total - stats.Fresh
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

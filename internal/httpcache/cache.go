package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultTTL is how long responses stay fresh unless configured otherwise
const DefaultTTL = 15 * time.Minute

// FromCacheHeader is set on responses served from the cache
const FromCacheHeader = "X-From-Cache"

// DefaultCacheableStatuses are the status codes stored by default
var DefaultCacheableStatuses = []int{http.StatusOK, http.StatusMovedPermanently, http.StatusFound}

// Cache stores HTTP responses in a Store with a time-based expiry
type Cache struct {
	store     Store
	ttl       time.Duration
	cacheable map[int]bool
	nowFunc   func() time.Time
}

// Option is a functional option for configuring Cache
type Option func(*Cache)

// WithTTL sets how long new entries stay fresh. Zero disables storing and
// a negative TTL stores entries that never expire.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithNowFunc sets a custom time function for testing
func WithNowFunc(fn func() time.Time) Option {
	return func(c *Cache) {
		c.nowFunc = fn
	}
}

// WithCacheableStatuses replaces the set of status codes that are stored
func WithCacheableStatuses(codes ...int) Option {
	return func(c *Cache) {
		c.cacheable = make(map[int]bool, len(codes))
		for _, code := range codes {
			c.cacheable[code] = true
		}
	}
}

// New creates a cache on top of store
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	WithCacheableStatuses(DefaultCacheableStatuses...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the expiry given to new entries
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Backend returns the underlying store
func (c *Cache) Backend() Store {
	return c.store
}

// Key computes the request signature
func Key(req *http.Request) string {
	return keyFor(req.Method, req.URL.String(), req.Header.Get("Accept"))
}

func keyFor(method, url, accept string) string {
	h := sha256.New()
	io.WriteString(h, method)
	h.Write([]byte{0})
	io.WriteString(h, url)
	h.Write([]byte{0})
	io.WriteString(h, accept)
	return hex.EncodeToString(h.Sum(nil))
}

// cacheableMethod reports whether responses to method are ever stored
func cacheableMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == ""
}

// Lookup returns the cached response for req when a fresh one exists.
// A stale entry is a miss. The returned error is ErrCacheMiss for misses.
func (c *Cache) Lookup(ctx context.Context, req *http.Request) (*http.Response, error) {
	if !cacheableMethod(req.Method) {
		return nil, ErrCacheMiss
	}
	entry, err := c.store.Get(ctx, Key(req))
	if err != nil {
		return nil, err
	}
	if !entry.Fresh(c.nowFunc()) {
		return nil, ErrCacheMiss
	}
	return entry.response(req), nil
}

// response rebuilds an *http.Response from the entry
func (e *Entry) response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(FromCacheHeader, "1")
	return &http.Response{
		Status:        strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// IsCached reports whether a fresh GET response for url is stored,
// whatever Accept header it was requested with
func (c *Cache) IsCached(ctx context.Context, url string) bool {
	ok, err := c.store.HasFresh(ctx, http.MethodGet, url, c.nowFunc())
	return err == nil && ok
}

// Store buffers the response body and saves the response when it is
// cacheable. The returned response has a body that can still be read.
// A failure to persist is returned together with the usable response.
func (c *Cache) Store(ctx context.Context, req *http.Request, resp *http.Response) (*http.Response, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if c.ttl == 0 || !cacheableMethod(req.Method) || !c.cacheable[resp.StatusCode] {
		return resp, nil
	}

	entry := &Entry{
		Key:         Key(req),
		Method:      req.Method,
		URL:         req.URL.String(),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header.Clone(),
		Body:        body,
		CreatedAt:   c.nowFunc(),
		ExpireAfter: c.ttl,
	}
	if entry.Method == "" {
		entry.Method = http.MethodGet
	}
	if c.ttl < 0 {
		entry.ExpireAfter = NeverExpire
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return resp, fmt.Errorf("failed to store %s: %w", entry.URL, err)
	}
	return resp, nil
}

// Purge removes stale entries
func (c *Cache) Purge(ctx context.Context) (int, error) {
	return c.store.Purge(ctx, c.nowFunc())
}

// Clear removes every entry
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Stats counts fresh and stale entries
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	return c.store.Stats(ctx, c.nowFunc())
}

// Close closes the store
func (c *Cache) Close() error {
	return c.store.Close()
}

// IsMiss reports whether err means the cache had nothing to serve
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

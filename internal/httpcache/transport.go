package httpcache

import (
	"net/http"

	"github.com/obentoo/project-summary/internal/common/logger"
)

// Transport is an http.RoundTripper that answers from the cache when it
// can and stores what it fetches otherwise
type Transport struct {
	Cache *Cache
	// Base performs uncached requests; http.DefaultTransport when nil
	Base http.RoundTripper
}

// NewTransport wraps base with cache
func NewTransport(cache *Cache, base http.RoundTripper) *Transport {
	return &Transport{Cache: cache, Base: base}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.Cache.Lookup(ctx, req)
	if err == nil {
		logger.Debug("HIT %s", req.URL)
		return resp, nil
	}
	if !IsMiss(err) {
		logger.Warn("HTTP cache lookup failed for %s: %v", req.URL, err)
	}

	logger.Debug("GET %s", req.URL)
	resp, err = t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	stored, err := t.Cache.Store(ctx, req, resp)
	if err != nil {
		if stored == nil {
			return nil, err
		}
		logger.Warn("%v", err)
	}
	return stored, nil
}

var _ http.RoundTripper = (*Transport)(nil)

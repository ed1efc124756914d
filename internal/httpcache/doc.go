// Package httpcache caches HTTP responses on disk with a time-based expiry.
//
// Each stored response is a row keyed by the request signature (method, URL
// and Accept header) that carries the time it was stored and how long it
// stays fresh. Stale rows are never served; they are replaced on the next
// request or removed by Purge.
//
// Three backends implement Store: SQLiteStore (the default), FileStore (a
// single JSON document) and MemoryStore. Transport plugs a Cache into an
// http.Client so API clients get caching without knowing about it.
package httpcache

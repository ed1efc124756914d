package httpcache

import (
	"net/http"
	"time"
)

// NeverExpire marks an entry that stays fresh forever
const NeverExpire time.Duration = -1

// Entry is one cached HTTP response
type Entry struct {
	Key         string        `json:"key"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code"`
	Header      http.Header   `json:"header"`
	Body        []byte        `json:"body"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpireAfter time.Duration `json:"expire_after"`
}

// Fresh reports whether the entry may still be served at now.
// A negative ExpireAfter never expires.
func (e *Entry) Fresh(now time.Time) bool {
	if e.ExpireAfter < 0 {
		return true
	}
	return !now.Before(e.CreatedAt) && now.Before(e.CreatedAt.Add(e.ExpireAfter))
}

// Stats counts the rows of a store
type Stats struct {
	Total int
	Fresh int
	Stale int
}

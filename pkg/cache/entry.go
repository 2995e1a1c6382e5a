// Package cache provides transport-level caching of catalog search
// responses with a Redis backend.
package cache

import (
	"time"
)

// Entry represents a cached search response.
type Entry struct {
	// Data is the JSON-encoded decoded page.
	Data []byte `json:"data"`

	// CachedAt is when the response was cached.
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}

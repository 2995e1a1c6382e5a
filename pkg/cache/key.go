package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cached search response by the request that produced it.
type Key struct {
	// Keyword is the search query the response belongs to.
	Keyword string

	// Page is the requested page number (>= 1).
	Page int
}

// String generates a deterministic cache key string.
// Format: catalog:search:<keyword>:page=<n>
//
// Example:
//
//	catalog:search:dune:page=2
func (k Key) String() string {
	// Colons in the keyword would collide with the key separator.
	keyword := strings.ReplaceAll(k.Keyword, ":", "_")
	return fmt.Sprintf("catalog:search:%s:page=%d", keyword, k.Page)
}

package feed

// Cursor is the coordinator's position in the paginated result set.
// The zero value means no active search.
type Cursor struct {
	// Keyword is the last submitted query; empty means no active search.
	Keyword string

	// CurrentPage is the highest page applied so far (>= 1 once active).
	CurrentPage int

	// TotalPages is the page count reported by the last applied fetch.
	TotalPages int
}

// HasMore reports whether pages beyond CurrentPage remain.
func (c Cursor) HasMore() bool {
	return c.Keyword != "" && c.CurrentPage < c.TotalPages
}

// pageMap stores the ordered key list of each fetched page, indexed by
// page number minus one. Pages are stored independently so a later page
// never overwrites an earlier one; a new search replaces the whole map.
type pageMap [][]string

// set stores keys under page, growing the map as needed.
func (pm *pageMap) set(page int, keys []string) {
	for len(*pm) < page {
		*pm = append(*pm, nil)
	}
	(*pm)[page-1] = keys
}

// flatten concatenates the per-page key lists in ascending page order.
// Duplicate keys across pages are passed through as-is.
func (pm pageMap) flatten() []string {
	n := 0
	for _, keys := range pm {
		n += len(keys)
	}
	out := make([]string, 0, n)
	for _, keys := range pm {
		out = append(out, keys...)
	}
	return out
}

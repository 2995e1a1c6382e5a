package search

// Record is one catalog entry returned by the search service.
type Record struct {
	// Href is the stable unique key for the record. It doubles as the
	// detail-page URL and as the identity used by list rendering and the
	// session store.
	Href string `json:"href"`

	Title       string `json:"title"`
	Cover       string `json:"cover"`
	Rating      string `json:"rating"`
	Year        string `json:"year"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Key returns the stable cache key for the record.
func (r Record) Key() string {
	return r.Href
}

// Pagination is the paging metadata block of a search response.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// Page is one decoded page of search results.
type Page struct {
	// Records preserve the server-provided order.
	Records []Record `json:"records"`

	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`

	// HasList is false when the response carried no result list at all.
	// Such responses are soft-empty: consumers must leave their state
	// unchanged. A present-but-empty list is a real empty page.
	HasList bool `json:"has_list"`
}

// searchResponse is the wire shape of the search service.
// Pointer fields distinguish absent blocks from empty ones.
type searchResponse struct {
	List       *[]Record   `json:"list"`
	Pagination *Pagination `json:"pagination"`
}

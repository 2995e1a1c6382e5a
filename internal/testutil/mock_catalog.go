// Package testutil provides testing utilities for the catalog feed module.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"catalogfeed/pkg/search"
)

// MockCatalog is a configurable mock catalog search server for testing.
// It speaks the search service wire shape:
//
//	{"list": [...], "pagination": {"currentPage": n, "totalPages": m}}
//
// Unconfigured (keyword, page) pairs answer with an empty JSON object,
// which clients treat as a soft-empty response.
type MockCatalog struct {
	server *httptest.Server

	mu     sync.RWMutex
	pages  map[string]string
	status int
	delay  time.Duration

	requestCount int
	lastQuery    url.Values
	lastHeader   http.Header
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		pages: make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastQuery = r.URL.Query()
		mock.lastHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		body, ok := mock.pages[pageKey(r.URL.Query().Get("wd"), r.URL.Query().Get("page"))]
		status := mock.status
		delay := mock.delay
		mock.mu.RUnlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		if status != 0 {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprint(w, body)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears configured pages, status overrides, and tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = make(map[string]string)
	m.status = 0
	m.delay = 0
	m.requestCount = 0
	m.lastQuery = nil
	m.lastHeader = nil
}

// SetPage registers a canned response body for (keyword, page).
func (m *MockCatalog) SetPage(keyword string, page int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[pageKey(keyword, fmt.Sprintf("%d", page))] = body
}

// SetStatus makes every request answer with the given HTTP status and no
// body. Pass 0 to restore normal behavior.
func (m *MockCatalog) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// SetDelay adds an artificial delay before every response.
func (m *MockCatalog) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// GetRequestCount returns the number of requests received.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockCatalog) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the most recent request.
func (m *MockCatalog) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func pageKey(keyword, page string) string {
	return keyword + ":" + page
}

// PageBody builds a well-formed search response body for the given records
// and pagination metadata.
func PageBody(records []search.Record, currentPage, totalPages int) string {
	resp := map[string]any{
		"list": records,
		"pagination": map[string]int{
			"currentPage": currentPage,
			"totalPages":  totalPages,
		},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Records builds n sequential record fixtures for keyword starting at
// offset. Keys are of the form "/detail/<keyword>-<n>".
func Records(keyword string, offset, n int) []search.Record {
	out := make([]search.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, search.Record{
			Href:        fmt.Sprintf("/detail/%s-%d", keyword, offset+i),
			Title:       fmt.Sprintf("%s %d", keyword, offset+i),
			Cover:       fmt.Sprintf("https://img.example.com/%s-%d.jpg", keyword, offset+i),
			Rating:      "7.5",
			Year:        "2023",
			Type:        "movie",
			Description: "fixture record",
		})
	}
	return out
}

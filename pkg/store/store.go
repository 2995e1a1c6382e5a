// Package store provides the session-scoped record store: a
// process-lifetime map from stable record keys to full records.
//
// The store is populated by every fetch the feed coordinator applies and
// read by the presentation layer. Entries are never evicted during a
// session; a later fetch for the same key overwrites in place.
package store

import (
	"sync"

	"catalogfeed/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the session store.
var (
	storeRecordsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_records_total",
		Help: "Number of records held in session stores",
	})

	storeLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_lookups_total",
		Help: "Record lookups by result",
	}, []string{"result"}) // "hit", "miss"
)

// Store maps stable record keys to full records for the lifetime of a
// search session. Safe for concurrent use: render reads race fetch writes.
type Store struct {
	mu      sync.RWMutex
	records map[string]search.Record
}

// New creates an empty session store.
func New() *Store {
	return &Store{
		records: make(map[string]search.Record),
	}
}

// Put inserts or overwrites the record for key. Last write wins.
func (s *Store) Put(key string, rec search.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[key]; !exists {
		storeRecordsTotal.Inc()
	}
	s.records[key] = rec
}

// Get looks up the record for key. A missing key means the key was
// referenced before its owning fetch completed; consumers should skip the
// item rather than fail.
func (s *Store) Get(key string) (search.Record, bool) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()

	if ok {
		storeLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		storeLookupsTotal.WithLabelValues("miss").Inc()
	}
	return rec, ok
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

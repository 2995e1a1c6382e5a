package feed

import (
	"context"
	"fmt"
	"sync"

	"catalogfeed/pkg/logging"
	"catalogfeed/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for feed coordination.
var (
	feedSearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_searches_total",
		Help: "Total dispatched searches, including refreshes",
	})

	feedPagesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_pages_loaded_total",
		Help: "Total result pages applied to the feed",
	})

	feedStaleDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_stale_responses_discarded_total",
		Help: "Total fetch completions discarded because a newer search superseded them",
	})

	feedLoadMoreNoopsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_load_more_noops_total",
		Help: "Total LoadMore calls skipped by the re-entrancy or has-more guard",
	})
)

// Searcher fetches one page of results for a keyword.
// *search.Client satisfies this; tests use stubs.
type Searcher interface {
	Search(ctx context.Context, keyword string, page int) (*search.Page, error)
}

// RecordStore is the session cache the coordinator writes fetched records
// into. Records are written before they become referenced by VisibleKeys,
// so every visible key resolves by the time a consumer sees it.
type RecordStore interface {
	Put(key string, rec search.Record)
	Get(key string) (search.Record, bool)
}

// State is an observable snapshot of the coordinator.
type State struct {
	Keyword     string
	CurrentPage int
	TotalPages  int
	HasMore     bool

	// Loading is true while any fetch is in flight. Refreshing and
	// LoadingMore track their operation class; all three are UI
	// affordances, not correctness gates.
	Loading     bool
	Refreshing  bool
	LoadingMore bool
}

// Event describes a coordinator state change delivered to OnChange.
type Event struct {
	State State

	// ScrollToTop is set when an applied search or refresh replaced the
	// visible list; the presentation layer should jump to the top.
	ScrollToTop bool
}

// Config holds the coordinator configuration.
type Config struct {
	// Searcher performs page fetches (REQUIRED).
	Searcher Searcher

	// Records is the session record store (REQUIRED).
	Records RecordStore

	// OnChange, when set, is invoked after every state change. Called
	// outside the coordinator lock; implementations may call State,
	// VisibleKeys, or the record store freely.
	OnChange func(Event)

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Coordinator owns the search cursor and the ordered page-to-keys mapping,
// and serializes search, refresh, and load-more against them.
//
// Mutating operations block until the fetch settles; asynchrony belongs to
// the caller (a UI layer invokes them from its own goroutine and observes
// progress via State and OnChange). Every fetch is stamped with a
// generation captured at dispatch; Submit and Refresh bump the generation,
// and completions from a superseded generation are discarded, so a slow
// late-arriving page can never be merged into a newer search's results.
type Coordinator struct {
	searcher Searcher
	records  RecordStore
	onChange func(Event)
	logger   zerolog.Logger

	mu          sync.Mutex
	cursor      Cursor
	pages       pageMap
	visible     []string
	gen         uint64
	inFlight    int
	refreshing  bool
	loadingMore bool
}

// New creates a new feed coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.Records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	logger := logging.NewLogger("feed")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Coordinator{
		searcher: cfg.Searcher,
		records:  cfg.Records,
		onChange: cfg.OnChange,
		logger:   logger,
	}, nil
}

// Submit starts a new search for keyword. An empty keyword is a no-op.
// On success page 1 replaces the page map and the cursor resets; on
// failure state is left unchanged and the error is returned.
func (c *Coordinator) Submit(ctx context.Context, keyword string) error {
	if keyword == "" {
		return nil
	}
	return c.startSearch(ctx, keyword, false)
}

// Refresh re-pulls page 1 for the current keyword with Submit semantics.
// A no-op when no search is active.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	keyword := c.cursor.Keyword
	c.mu.Unlock()

	if keyword == "" {
		return nil
	}
	return c.startSearch(ctx, keyword, true)
}

// LoadMore fetches the page after the current one. A silent no-op while a
// load-more is already in flight or when no further pages exist. On failure
// the cursor stays put so the next call retries the same page.
func (c *Coordinator) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loadingMore || !c.cursor.HasMore() {
		c.mu.Unlock()
		feedLoadMoreNoopsTotal.Inc()
		return nil
	}
	gen := c.gen
	keyword := c.cursor.Keyword
	nextPage := c.cursor.CurrentPage + 1
	c.loadingMore = true
	c.inFlight++
	st := c.stateLocked()
	c.mu.Unlock()

	c.notify(Event{State: st})

	page, err := c.searcher.Search(ctx, keyword, nextPage)

	c.mu.Lock()
	c.loadingMore = false
	c.inFlight--

	if gen != c.gen {
		st := c.stateLocked()
		c.mu.Unlock()
		feedStaleDiscardedTotal.Inc()
		c.logger.Warn().
			Str("keyword", keyword).
			Int("page", nextPage).
			Msg("Discarding load-more response for superseded search")
		c.notify(Event{State: st})
		return nil
	}

	if err != nil {
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Error().Err(err).
			Str("keyword", keyword).
			Int("page", nextPage).
			Msg("Load-more fetch failed")
		c.notify(Event{State: st})
		return err
	}

	if !page.HasList {
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Debug().
			Str("keyword", keyword).
			Int("page", nextPage).
			Msg("Load-more response carried no result list")
		c.notify(Event{State: st})
		return nil
	}

	keys := c.storeRecords(page.Records)
	c.pages.set(nextPage, keys)
	// The cursor advances by exactly one per applied load-more; the total
	// tracks whatever the server reported for this page.
	c.cursor.CurrentPage = nextPage
	c.cursor.TotalPages = page.TotalPages
	c.visible = c.pages.flatten()
	st = c.stateLocked()
	c.mu.Unlock()

	feedPagesLoadedTotal.Inc()
	c.logger.Info().
		Str("keyword", keyword).
		Int("page", nextPage).
		Int("records", len(keys)).
		Bool("has_more", st.HasMore).
		Msg("Page appended to feed")
	c.notify(Event{State: st})
	return nil
}

// VisibleKeys returns the flattened visible key sequence: the per-page key
// lists concatenated in ascending page order. Pure derivation, safe to
// call at any time.
func (c *Coordinator) VisibleKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.visible))
	copy(out, c.visible)
	return out
}

// State returns an observable snapshot of the coordinator.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// startSearch runs the shared Submit/Refresh path: dispatch a page-1 fetch
// under a fresh generation and, if still current on completion, replace the
// page map and cursor atomically.
func (c *Coordinator) startSearch(ctx context.Context, keyword string, refreshing bool) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.inFlight++
	if refreshing {
		c.refreshing = true
	}
	st := c.stateLocked()
	c.mu.Unlock()

	feedSearchesTotal.Inc()
	c.notify(Event{State: st})

	page, err := c.searcher.Search(ctx, keyword, 1)

	c.mu.Lock()
	c.inFlight--
	if refreshing {
		c.refreshing = false
	}

	if gen != c.gen {
		st := c.stateLocked()
		c.mu.Unlock()
		feedStaleDiscardedTotal.Inc()
		c.logger.Warn().
			Str("keyword", keyword).
			Msg("Discarding superseded search response")
		c.notify(Event{State: st})
		return nil
	}

	if err != nil {
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Error().Err(err).
			Str("keyword", keyword).
			Msg("Search fetch failed")
		c.notify(Event{State: st})
		return err
	}

	if !page.HasList {
		st := c.stateLocked()
		c.mu.Unlock()
		c.logger.Debug().
			Str("keyword", keyword).
			Msg("Search response carried no result list")
		c.notify(Event{State: st})
		return nil
	}

	keys := c.storeRecords(page.Records)
	c.pages = pageMap{keys}
	c.cursor = Cursor{
		Keyword:     keyword,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}
	c.visible = c.pages.flatten()
	st = c.stateLocked()
	c.mu.Unlock()

	feedPagesLoadedTotal.Inc()
	c.logger.Info().
		Str("keyword", keyword).
		Int("records", len(keys)).
		Int("total_pages", st.TotalPages).
		Bool("refresh", refreshing).
		Msg("Search applied")
	c.notify(Event{State: st, ScrollToTop: true})
	return nil
}

// storeRecords writes every record into the session store and returns the
// ordered key list. Must be called with c.mu held so keys cannot become
// visible before their records resolve.
func (c *Coordinator) storeRecords(records []search.Record) []string {
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		c.records.Put(rec.Key(), rec)
		keys = append(keys, rec.Key())
	}
	return keys
}

func (c *Coordinator) stateLocked() State {
	return State{
		Keyword:     c.cursor.Keyword,
		CurrentPage: c.cursor.CurrentPage,
		TotalPages:  c.cursor.TotalPages,
		HasMore:     c.cursor.HasMore(),
		Loading:     c.inFlight > 0,
		Refreshing:  c.refreshing,
		LoadingMore: c.loadingMore,
	}
}

func (c *Coordinator) notify(ev Event) {
	if c.onChange != nil {
		c.onChange(ev)
	}
}

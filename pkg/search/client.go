// Package search provides the HTTP client for the remote catalog search
// service: request construction, response decoding, error classification,
// and optional response caching and request budgeting.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"catalogfeed/pkg/cache"
	"catalogfeed/pkg/logging"
	"catalogfeed/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for catalog fetch operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog search requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog search request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total catalog fetch errors by class",
	}, []string{"class"})
)

// Client is the catalog search client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	budget     *ratelimit.Budget
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog search service (REQUIRED).
	BaseURL string

	// User-Agent header sent with every request (REQUIRED).
	UserAgent string

	// Timeout per request.
	Timeout time.Duration

	// Redis enables the transport-level response cache and the shared
	// request budget. Nil disables both; the client works without Redis.
	Redis *redis.Client

	// CacheTTL is how long cached search responses stay valid.
	CacheTTL time.Duration

	// Budget configures outbound request limiting. The zero value uses
	// ratelimit defaults.
	Budget ratelimit.Config
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		CacheTTL:  5 * time.Minute,
		Budget:    ratelimit.DefaultConfig(),
	}
}

// New creates a new catalog search client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger("catalog-client")

	var responseCache *cache.Manager
	if cfg.Redis != nil {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		responseCache = cache.NewManager(cfg.Redis, ttl)
	}

	budgetCfg := cfg.Budget
	budgetCfg.Redis = cfg.Redis
	budget := ratelimit.NewBudget(budgetCfg, logger)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  responseCache,
		budget: budget,
		config: cfg,
		logger: logger,
	}, nil
}

// Search fetches one page of results for keyword. The returned Page
// distinguishes a present-but-empty result list from a response that carried
// no list at all (soft-empty). Failed fetches are never retried here.
func (c *Client) Search(ctx context.Context, keyword string, page int) (*Page, error) {
	if keyword == "" {
		return nil, fmt.Errorf("keyword must not be empty")
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1 (got %d)", page)
	}

	startTime := time.Now()

	// Step 1: Check request budget
	if !c.budget.Allow(ctx) {
		c.logger.Warn().
			Str("keyword", keyword).
			Int("page", page).
			Msg("Request blocked by rate budget")
		catalogRequestsTotal.WithLabelValues("blocked").Inc()
		return nil, ErrRequestBlocked
	}

	// Step 2: Check response cache
	cacheKey := cache.Key{Keyword: keyword, Page: page}
	if c.cache != nil {
		if p, ok := c.cachedPage(ctx, cacheKey); ok {
			catalogRequestDuration.WithLabelValues("cache").Observe(time.Since(startTime).Seconds())
			c.logger.Debug().
				Str("keyword", keyword).
				Int("page", page).
				Msg("Serving search page from cache")
			return p, nil
		}
	}

	defer func() {
		catalogRequestDuration.WithLabelValues("remote").Observe(time.Since(startTime).Seconds())
	}()

	// Step 3: Execute HTTP request
	query := url.Values{
		"wd":   []string{keyword},
		"page": []string{strconv.Itoa(page)},
	}
	reqURL := c.config.BaseURL + "/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("keyword", keyword).
		Int("page", page).
		Msg("Executing catalog search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("keyword", keyword).Int("page", page).Msg("Catalog request failed")
		catalogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &SearchError{
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		catalogErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("keyword", keyword).
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Catalog request error")
		return nil, &SearchError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	// Step 4: Decode. A body that does not decode, or decodes without a
	// list field, is a soft-empty page rather than an error.
	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Warn().Err(err).Str("keyword", keyword).Int("page", page).Msg("Malformed search response")
		return &Page{CurrentPage: page, TotalPages: page}, nil
	}

	p := decodePage(&raw, page)
	if !p.HasList {
		c.logger.Debug().
			Str("keyword", keyword).
			Int("page", page).
			Msg("Search response carried no result list")
		return p, nil
	}

	// Step 5: Update cache on success
	if c.cache != nil {
		if err := c.storePage(ctx, cacheKey, p); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache search response")
		}
	}

	return p, nil
}

// decodePage normalizes a wire response into a Page. When the pagination
// block is absent the page is treated as the last one.
func decodePage(raw *searchResponse, requested int) *Page {
	p := &Page{CurrentPage: requested, TotalPages: requested}

	if raw.List == nil {
		return p
	}

	p.HasList = true
	p.Records = *raw.List

	if raw.Pagination != nil {
		if raw.Pagination.CurrentPage >= 1 {
			p.CurrentPage = raw.Pagination.CurrentPage
		}
		p.TotalPages = raw.Pagination.TotalPages
	}
	if p.TotalPages < p.CurrentPage {
		p.TotalPages = p.CurrentPage
	}

	return p
}

// cachedPage looks up a previously cached page. Any cache failure is
// treated as a miss.
func (c *Client) cachedPage(ctx context.Context, key cache.Key) (*Page, bool) {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache get error")
		}
		return nil, false
	}

	var p Page
	if err := json.Unmarshal(entry.Data, &p); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Corrupt cache entry")
		return nil, false
	}
	return &p, true
}

// storePage writes a successfully decoded page to the response cache.
func (c *Client) storePage(ctx context.Context, key cache.Key, p *Page) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}
	return c.cache.Set(ctx, key, &cache.Entry{
		Data:     data,
		CachedAt: time.Now(),
	})
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

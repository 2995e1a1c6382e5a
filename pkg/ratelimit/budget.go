// Package ratelimit gates outbound catalog requests behind a local token
// bucket and an optional Redis-backed fixed-window budget shared across
// processes.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request budgeting.
var (
	catalogRequestsBlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_blocked_total",
		Help: "Total requests denied by the rate budget, by layer",
	}, []string{"layer"}) // "local", "shared"
)

// Config holds the budget configuration.
type Config struct {
	// LocalRate is the sustained request rate of the in-process bucket.
	LocalRate rate.Limit

	// LocalBurst is the bucket capacity.
	LocalBurst int

	// Redis enables the shared fixed-window budget. Nil disables it.
	Redis *redis.Client

	// Window is the length of the shared budget window.
	Window time.Duration

	// WindowLimit is the number of requests allowed per window across
	// all processes sharing the Redis instance.
	WindowLimit int
}

// DefaultConfig returns a polite default budget.
func DefaultConfig() Config {
	return Config{
		LocalRate:   5,
		LocalBurst:  10,
		Window:      time.Minute,
		WindowLimit: 120,
	}
}

// Budget limits the rate of outbound catalog requests. Denied requests are
// surfaced to the caller; nothing here retries or queues.
type Budget struct {
	local  *rate.Limiter
	redis  *redis.Client
	window time.Duration
	limit  int
	logger zerolog.Logger
}

// NewBudget creates a new request budget.
func NewBudget(cfg Config, logger zerolog.Logger) *Budget {
	if cfg.LocalRate <= 0 {
		cfg.LocalRate = 5
	}
	if cfg.LocalBurst <= 0 {
		cfg.LocalBurst = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.WindowLimit <= 0 {
		cfg.WindowLimit = 120
	}

	return &Budget{
		local:  rate.NewLimiter(cfg.LocalRate, cfg.LocalBurst),
		redis:  cfg.Redis,
		window: cfg.Window,
		limit:  cfg.WindowLimit,
		logger: logger,
	}
}

// Allow reports whether a request may be issued now. The local bucket is
// consulted first; the shared window only when Redis is configured. Redis
// failures fail open: a broken shared budget must not take down search.
func (b *Budget) Allow(ctx context.Context) bool {
	if !b.local.Allow() {
		catalogRequestsBlockedTotal.WithLabelValues("local").Inc()
		return false
	}

	if b.redis == nil {
		return true
	}

	key := b.windowKey(time.Now())
	count, err := b.redis.Incr(ctx, key).Result()
	if err != nil {
		b.logger.Warn().Err(err).Msg("Shared budget check failed, allowing request")
		return true
	}

	// First hit in this window owns setting the expiry.
	if count == 1 {
		if err := b.redis.Expire(ctx, key, b.window).Err(); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to set budget window expiry")
		}
	}

	if count > int64(b.limit) {
		catalogRequestsBlockedTotal.WithLabelValues("shared").Inc()
		b.logger.Warn().
			Int64("count", count).
			Int("limit", b.limit).
			Msg("Shared request budget exhausted")
		return false
	}

	return true
}

// windowKey derives the Redis key for the window containing t.
func (b *Budget) windowKey(t time.Time) string {
	return fmt.Sprintf("catalog:budget:%d", t.UnixNano()/int64(b.window))
}

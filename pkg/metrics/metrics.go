// Package metrics provides the central Prometheus registry reference for
// the catalog feed module. Metrics are defined in their owning packages
// (search, feed, store, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the module.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/search):
//   - catalog_requests_total{status} (Counter): Requests by outcome; status is the
//     HTTP status code or one of "blocked", "network_error"
//   - catalog_request_duration_seconds{source} (Histogram): Search duration by
//     source ("remote", "cache")
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Feed Metrics (pkg/feed):
//   - feed_searches_total (Counter): Dispatched searches including refreshes
//   - feed_pages_loaded_total (Counter): Result pages applied to the feed
//   - feed_stale_responses_discarded_total (Counter): Completions discarded
//     because a newer search superseded them
//   - feed_load_more_noops_total (Counter): LoadMore calls skipped by the
//     re-entrancy or has-more guard
//
// Session Store Metrics (pkg/store):
//   - store_records_total (Gauge): Records held in session stores
//   - store_lookups_total{result} (Counter): Lookups by result (hit, miss)
//
// Response Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total (Counter): Response cache hits
//   - catalog_cache_misses_total (Counter): Response cache misses
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Budget Metrics (pkg/ratelimit):
//   - catalog_requests_blocked_total{layer} (Counter): Requests denied by
//     the budget, by layer (local, shared)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Fetch Error Rate
//   rate(catalog_errors_total[5m])
//
//   # P95 Search Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket{source="remote"}[5m]))
//
//   # Stale Discard Rate (search/refresh racing load-more)
//   rate(feed_stale_responses_discarded_total[5m])

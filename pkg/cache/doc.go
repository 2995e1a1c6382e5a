// Package cache provides transport-level caching of catalog search
// responses with a Redis backend.
//
// This cache sits below the search client and above the network: identical
// (keyword, page) requests within the TTL window are answered from Redis
// without touching the catalog service. It is distinct from the session
// record store (package store), which holds individual records for the
// lifetime of a search session and never evicts.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager with a 5 minute TTL
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	// Create cache key
//	key := cache.Key{Keyword: "dune", Page: 1}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the catalog service
//	}
//
// Cache failures are never fatal: callers treat any error as a miss and
// fall through to a direct fetch.
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - catalog_cache_hits_total - Cache hits
//   - catalog_cache_misses_total - Cache misses
//   - catalog_cache_errors_total{operation} - Cache operation errors
package cache

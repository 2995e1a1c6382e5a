package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"catalogfeed/pkg/logging"
	"catalogfeed/pkg/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Configuration from environment
	catalogURL := getEnv("CATALOG_URL", "https://catalog.example.com")
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "catalog-proxy/0.1.0")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Output: os.Stderr,
	})

	// Redis is optional: without it the proxy runs uncached and with only
	// the local request budget.
	var redisClient *redis.Client
	if redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisURL,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("redis_url", redisURL).Msg("Redis unreachable, running without response cache")
			redisClient = nil
		} else {
			logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis")
		}
		cancel()
	}

	cfg := search.DefaultConfig(catalogURL, userAgent)
	cfg.Redis = redisClient

	searchClient, err := search.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create search client")
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/search", searchHandler(searchClient, logger))
	http.Handle("/metrics", promhttp.Handler())

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("catalog_url", catalogURL).
		Str("user_agent", userAgent).
		Msg("Starting catalog proxy")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func searchHandler(client *search.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("q")
		if keyword == "" {
			http.Error(w, "missing q parameter", http.StatusBadRequest)
			return
		}

		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "page must be a positive integer", http.StatusBadRequest)
				return
			}
			page = n
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		result, err := client.Search(ctx, keyword, page)
		if err != nil {
			logger.Error().Err(err).Str("keyword", keyword).Int("page", page).Msg("Search failed")
			http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error().Err(err).Msg("Failed to write response")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package integration

import (
	"context"
	"testing"
	"time"

	"catalogfeed/internal/testutil"
	"catalogfeed/pkg/feed"
	"catalogfeed/pkg/search"
	"catalogfeed/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newClient(t *testing.T, mock *testutil.MockCatalog, redisClient *redis.Client) *search.Client {
	t.Helper()

	cfg := search.DefaultConfig(mock.URL(), "catalogfeed-integration/1.0.0")
	cfg.Redis = redisClient
	cfg.Budget.LocalRate = 10000
	cfg.Budget.LocalBurst = 10000
	cfg.Budget.WindowLimit = 10000

	client, err := search.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// TestFullRequestFlow tests the complete fetch flow:
// Budget → Cache Miss → Catalog → Cache Store → Cache Hit.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetPage("dune", 1, testutil.PageBody(testutil.Records("dune", 0, 3), 1, 2))

	client := newClient(t, mock, redisClient)
	ctx := context.Background()

	// Request 1: cache miss, hits the catalog.
	t.Log("Request 1: full flow - cache miss")
	page1, err := client.Search(ctx, "dune", 1)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if len(page1.Records) != 3 {
		t.Errorf("Request 1 records = %d, want 3", len(page1.Records))
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("Catalog requests = %d, want 1", mock.GetRequestCount())
	}

	// Request 2: identical, served from Redis.
	t.Log("Request 2: cache hit")
	page2, err := client.Search(ctx, "dune", 1)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("Catalog requests = %d, want 1 (request 2 should hit cache)", mock.GetRequestCount())
	}
	if len(page2.Records) != len(page1.Records) {
		t.Errorf("Cached records = %d, want %d", len(page2.Records), len(page1.Records))
	}

	// Request 3: different page, cache miss again.
	t.Log("Request 3: different page - cache miss")
	mock.SetPage("dune", 2, testutil.PageBody(testutil.Records("dune", 3, 2), 2, 2))
	if _, err := client.Search(ctx, "dune", 2); err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("Catalog requests = %d, want 2", mock.GetRequestCount())
	}
}

// TestSharedBudgetBlocks verifies the Redis fixed-window budget denies
// requests past the limit.
func TestSharedBudgetBlocks(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()

	// Distinct pages defeat the response cache so every search consumes
	// budget.
	for page := 1; page <= 6; page++ {
		mock.SetPage("dune", page, testutil.PageBody(testutil.Records("dune", page, 1), page, 10))
	}

	cfg := search.DefaultConfig(mock.URL(), "catalogfeed-integration/1.0.0")
	cfg.Redis = redisClient
	cfg.Budget.LocalRate = 10000
	cfg.Budget.LocalBurst = 10000
	cfg.Budget.Window = time.Minute
	cfg.Budget.WindowLimit = 4

	client, err := search.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	var denied int
	for page := 1; page <= 6; page++ {
		_, err := client.Search(ctx, "dune", page)
		if err == search.ErrRequestBlocked {
			denied++
		} else if err != nil {
			t.Fatalf("Search page %d failed: %v", page, err)
		}
	}

	if denied != 2 {
		t.Errorf("Denied = %d, want 2 (limit 4 of 6)", denied)
	}
}

// TestFeedEndToEnd drives the coordinator through the real client, cache,
// and session store.
func TestFeedEndToEnd(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.SetPage("dune", 1, testutil.PageBody(testutil.Records("dune", 0, 2), 1, 2))
	mock.SetPage("dune", 2, testutil.PageBody(testutil.Records("dune", 2, 2), 2, 2))

	client := newClient(t, mock, redisClient)
	records := store.New()
	coord, err := feed.New(feed.Config{
		Searcher: client,
		Records:  records,
	})
	if err != nil {
		t.Fatalf("Failed to create coordinator: %v", err)
	}

	ctx := context.Background()

	if err := coord.Submit(ctx, "dune"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := coord.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}

	keys := coord.VisibleKeys()
	if len(keys) != 4 {
		t.Fatalf("VisibleKeys length = %d, want 4", len(keys))
	}
	for _, key := range keys {
		if _, ok := records.Get(key); !ok {
			t.Errorf("Visible key %q missing from session store", key)
		}
	}

	st := coord.State()
	if st.HasMore {
		t.Error("HasMore = true after last page")
	}

	// Refresh re-pulls page 1; with the response cache warm it does not
	// touch the catalog again.
	requestsBefore := mock.GetRequestCount()
	if err := coord.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if mock.GetRequestCount() != requestsBefore {
		t.Errorf("Catalog requests = %d, want %d (refresh served from cache)", mock.GetRequestCount(), requestsBefore)
	}
	if got := len(coord.VisibleKeys()); got != 2 {
		t.Errorf("VisibleKeys length after refresh = %d, want 2", got)
	}
}

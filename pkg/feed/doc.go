// Package feed implements the pagination coordinator behind an infinitely
// scrollable, paginated search result list.
//
// The coordinator merges successively fetched result pages into a single
// ordered feed, writes every fetched record into an injected session store
// so list items resolve without re-fetching, and serializes search,
// refresh, and load-more against one logical cursor.
//
// Example usage:
//
//	records := store.New()
//	coord, err := feed.New(feed.Config{
//		Searcher: searchClient,
//		Records:  records,
//	})
//
//	coord.Submit(ctx, "dune")      // page 1 replaces the feed
//	coord.LoadMore(ctx)            // page 2 appended
//	for _, key := range coord.VisibleKeys() {
//		if rec, ok := records.Get(key); ok {
//			render(rec)
//		}
//	}
//
// Guarantees:
//   - Records reach the store before their keys appear in VisibleKeys.
//   - LoadMore is re-entrancy guarded: a second trigger while one is in
//     flight issues no fetch.
//   - A new Submit or Refresh supersedes in-flight fetches; their late
//     completions are discarded rather than merged out of order.
//   - Failed and soft-empty fetches leave cursor and page map untouched.
package feed

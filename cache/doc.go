// Package cache provides the in-memory store behind the dashboard loader:
// string keys, opaque values, per-entry TTL, LRU eviction and a
// fetch-or-populate helper.
//
// Design
//
//   - Storage: a map[string]*node for lookups and an intrusive MRU↔LRU list
//     for ordering, both guarded by one mutex. Every hit and every write
//     stamps the entry with the next value of a store-wide access counter,
//     so the list tail is always the entry with the smallest counter.
//
//   - TTL: each entry expires at insert time + ttl. Set without an explicit
//     ttl asks the ttl.Resolver. Expiry is lazy (Get/Has remove what they
//     find expired); an optional sweeper bounds memory between accesses.
//
//   - Capacity: inserting a new key into a full store first drops expired
//     entries, then evicts exactly one live entry, the LRU one.
//
//   - Invalidation: Delete, ClearByPrefix and Clear bump a generation and
//     are logged. ClearByPrefix is a literal prefix match, so "org:A:" never
//     touches "org:AB:x".
//
//   - GetOrFetch: a hit never calls the supplier. Misses on the same key are
//     coalesced into one supplier call (singleflight). Supplier errors are
//     returned unchanged and never cached. A result whose key was invalidated
//     while the supplier ran is returned but not stored, so a late fetch
//     cannot repopulate a freshly cleared scope.
//
//   - Metrics and tracing: Options.Metrics receives hit/miss/evict/size and
//     per-fetch timings; every supplier call runs inside a "cache.fetch" span.
//
// Basic usage
//
//	s := cache.New(cache.Options{Capacity: 1000})
//	defer s.Close()
//	s.Set("org:acme:categories", cats)           // lifetime from the resolver
//	s.SetWithTTL("org:acme:employees", emps, 30*time.Second)
//	if v, ok := s.Get("org:acme:employees"); ok {
//	    _ = v
//	}
//	s.ClearByPrefix(keys.OrgPrefix("acme"))
//
// Fetch-or-populate
//
//	emps, err := cache.Fetch(ctx, s, keys.Org("acme", "employees"),
//	    func(ctx context.Context) ([]source.Document, error) {
//	        return src.FetchByOrg(ctx, "acme", "employees")
//	    }, 0)
package cache

package cache

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/IvanBrykalov/dashcache/internal/singleflight"
	"github.com/IvanBrykalov/dashcache/policy"
	"github.com/IvanBrykalov/dashcache/policy/lru"
	"github.com/IvanBrykalov/dashcache/ttl"
)

// ErrClosed is returned by GetOrFetch after Close.
var ErrClosed = errors.New("cache: store closed")

const tracerName = "github.com/IvanBrykalov/dashcache/cache"

// Store is an in-memory key/value store with per-entry TTL and LRU eviction.
// All methods are safe for concurrent use; a single mutex guards the map,
// the recency list and the access counter.
type Store struct {
	mu   sync.Mutex
	m    map[string]*node
	head *node // MRU
	tail *node // LRU
	len  int
	cap  int
	seq  uint64 // access counter

	gen  uint64         // invalidation generation
	invs []invalidation // recent invalidations, oldest first

	pol      policy.Instance
	resolver *ttl.Resolver
	opt      Options
	tracer   trace.Tracer

	sf     singleflight.Group[string, any]
	closed atomic.Bool

	stopSweep chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Uint64
	expirations atomic.Uint64
	fetches     atomic.Uint64
	staleWrites atomic.Uint64
}

// New constructs a Store. It panics if opt.Capacity <= 0.
func New(opt Options) *Store {
	if opt.Capacity <= 0 {
		panic("cache: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New()
	}
	if opt.Resolver == nil {
		opt.Resolver = ttl.New(opt.DefaultTTL, nil)
	}
	tr := opt.Tracer
	if tr == nil {
		tr = otel.Tracer(tracerName)
	}

	s := &Store{
		m:        make(map[string]*node, opt.Capacity),
		cap:      opt.Capacity,
		resolver: opt.Resolver,
		opt:      opt,
		tracer:   tr,
	}
	s.pol = opt.Policy.New(storeHooks{s: s})

	if opt.SweepInterval > 0 {
		s.stopSweep = make(chan struct{})
		s.sweepDone = make(chan struct{})
		go s.sweepLoop(opt.SweepInterval)
	}
	return s
}

// Resolver returns the TTL resolver in use.
func (s *Store) Resolver() *ttl.Resolver { return s.resolver }

// Get returns the value for key. An expired entry is removed and reported
// as a miss. A hit refreshes the entry's access record.
func (s *Store) Get(key string) (any, bool) {
	if s.closed.Load() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lookupLocked(key, true)
	if ok {
		s.hits.Add(1)
		s.opt.Metrics.Hit()
	} else {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
	}
	return v, ok
}

// Has reports whether a live entry exists for key. Like Get it removes an
// expired entry, but a hit does not change recency order.
func (s *Store) Has(key string) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.lookupLocked(key, false)
	return ok
}

// Set inserts or replaces key with the lifetime the resolver picks for it.
func (s *Store) Set(key string, v any) {
	s.SetWithTTL(key, v, 0)
}

// SetWithTTL inserts or replaces key. A non-positive ttl means "not given"
// and defers to the resolver.
func (s *Store) SetWithTTL(key string, v any, ttl time.Duration) {
	if s.closed.Load() {
		return
	}
	if ttl <= 0 {
		ttl = s.resolver.Resolve(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, v, ttl)
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordInvalidationLocked(key, true)
	n, ok := s.m[key]
	if !ok {
		return false
	}
	s.unlinkLocked(n)
	s.opt.Metrics.Size(s.len)
	return true
}

// ClearByPrefix removes every key that starts with prefix (literal match)
// and returns how many were removed.
func (s *Store) ClearByPrefix(prefix string) int {
	if s.closed.Load() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordInvalidationLocked(prefix, false)
	removed := 0
	for k, n := range s.m {
		if strings.HasPrefix(k, prefix) {
			s.unlinkLocked(n)
			removed++
		}
	}
	if removed > 0 {
		s.opt.Metrics.Size(s.len)
	}
	return removed
}

// Clear removes everything and resets the access counter.
func (s *Store) Clear() {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordInvalidationLocked("", false)
	for _, n := range s.m {
		s.pol.OnRemove(n)
	}
	s.m = make(map[string]*node, s.cap)
	s.head, s.tail = nil, nil
	s.len = 0
	s.seq = 0
	s.opt.Metrics.Size(0)
}

// Len returns the number of resident entries, expired ones included until
// they are noticed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

// Keys returns the live keys from most to least recently used.
// It does not touch recency order or remove expired entries.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]string, 0, s.len)
	for n := s.head; n != nil; n = n.next {
		if now <= n.exp {
			out = append(out, n.key)
		}
	}
	return out
}

// Stats returns a copy of the counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Evictions:   s.evictions.Load(),
		Expirations: s.expirations.Load(),
		Fetches:     s.fetches.Load(),
		StaleWrites: s.staleWrites.Load(),
		Entries:     s.Len(),
	}
}

// Close stops the sweeper and turns every later operation into a no-op or miss.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.stopSweep != nil {
			close(s.stopSweep)
			<-s.sweepDone
		}
	})
	return nil
}

// ---- internals (mu held) ----

func (s *Store) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (s *Store) expiredLocked(n *node, now int64) bool { return now > n.exp }

// lookupLocked returns the live value for key; touch records the access.
func (s *Store) lookupLocked(key string, touch bool) (any, bool) {
	n, ok := s.m[key]
	if !ok {
		return nil, false
	}
	if s.expiredLocked(n, s.now()) {
		s.evictLocked(n, EvictTTL)
		s.opt.Metrics.Size(s.len)
		return nil, false
	}
	if touch {
		s.seq++
		n.seq = s.seq
		s.pol.OnGet(n)
	}
	return n.val, true
}

func (s *Store) setLocked(key string, v any, ttl time.Duration) {
	now := s.now()
	if n, ok := s.m[key]; ok {
		n.val = v
		n.inserted = now
		n.exp = now + int64(ttl)
		s.seq++
		n.seq = s.seq
		s.pol.OnUpdate(n)
		return
	}

	if s.len >= s.cap {
		s.makeRoomLocked(now)
	}

	s.seq++
	n := &node{key: key, val: v, inserted: now, exp: now + int64(ttl), seq: s.seq}
	s.m[key] = n
	if ev := s.pol.OnAdd(n); ev != nil {
		s.evictLocked(ev.(*node), EvictLRU)
	}
	s.opt.Metrics.Size(s.len)
}

// makeRoomLocked frees one slot: expired entries go first, and only if none
// were expired is the least recently used live entry evicted.
func (s *Store) makeRoomLocked(now int64) {
	s.purgeExpiredLocked(now)
	for s.len >= s.cap && s.tail != nil {
		s.evictLocked(s.tail, EvictLRU)
	}
}

// purgeExpiredLocked drops every expired entry and returns how many.
func (s *Store) purgeExpiredLocked(now int64) int {
	purged := 0
	for n := s.tail; n != nil; {
		prev := n.prev
		if s.expiredLocked(n, now) {
			s.evictLocked(n, EvictTTL)
			purged++
		}
		n = prev
	}
	return purged
}

// evictLocked removes n and reports it as an eviction.
func (s *Store) evictLocked(n *node, reason EvictReason) {
	s.unlinkLocked(n)
	if reason == EvictTTL {
		s.expirations.Add(1)
	} else {
		s.evictions.Add(1)
	}
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

// unlinkLocked drops n from the policy, the list and the map.
func (s *Store) unlinkLocked(n *node) {
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, n.key)
}

package cache

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/IvanBrykalov/dashcache/policy"
	"github.com/IvanBrykalov/dashcache/ttl"
)

// EvictReason explains why an entry left the store without an explicit Delete.
type EvictReason int

const (
	// EvictLRU: removed to make room for a new key.
	EvictLRU EvictReason = iota
	// EvictTTL: found expired on access, at capacity, or by the sweeper.
	EvictTTL
)

func (r EvictReason) String() string {
	if r == EvictTTL {
		return "ttl"
	}
	return "lru"
}

// Metrics receives store events. NoopMetrics is used when none is set.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
	// ObserveFetch reports one supplier invocation made by GetOrFetch.
	ObserveFetch(d time.Duration, err error)
}

// Clock provides time in UnixNano; tests swap it for a fake.
type Clock interface{ NowUnixNano() int64 }

// Options configures a Store. Zero values get defaults in New:
//   - nil Resolver -> ttl.New(DefaultTTL, nil)
//   - nil Policy   -> LRU
//   - nil Metrics  -> NoopMetrics
//   - nil Clock    -> time.Now
//   - nil Tracer   -> the global OpenTelemetry tracer
type Options struct {
	// Capacity is the maximum number of resident entries. Must be > 0.
	Capacity int

	// DefaultTTL is the fallback lifetime when Resolver is nil.
	DefaultTTL time.Duration

	// Resolver decides lifetimes for Set and for GetOrFetch without an explicit ttl.
	Resolver *ttl.Resolver

	// Policy orders entries for eviction. Only LRU satisfies the
	// smallest-access-counter-first eviction rule; others are for experiments.
	Policy policy.Policy

	// SweepInterval > 0 starts a background goroutine that drops expired
	// entries between accesses. Expiry is lazy either way.
	SweepInterval time.Duration

	// OnEvict is called under the store lock; keep it cheap.
	OnEvict func(key string, v any, reason EvictReason)

	Metrics Metrics
	Clock   Clock
	Tracer  trace.Tracer
}

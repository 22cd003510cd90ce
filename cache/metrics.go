package cache

import "time"

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                              {}
func (NoopMetrics) Miss()                             {}
func (NoopMetrics) Evict(EvictReason)                 {}
func (NoopMetrics) Size(int)                          {}
func (NoopMetrics) ObserveFetch(time.Duration, error) {}

var _ Metrics = NoopMetrics{}

// Stats is a point-in-time copy of the store counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   uint64 // LRU evictions
	Expirations uint64 // TTL removals
	Fetches     uint64 // supplier invocations
	StaleWrites uint64 // supplier results not stored because the key was invalidated mid-fetch
	Entries     int
}

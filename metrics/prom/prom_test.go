package prom

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/IvanBrykalov/dashcache/cache"
	"github.com/IvanBrykalov/dashcache/dashboard"
)

func TestAdapter_CacheEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "dashcache", "cache", nil)

	a.Hit()
	a.Hit()
	a.Miss()
	a.Evict(cache.EvictTTL)
	a.Evict(cache.EvictLRU)
	a.Evict(cache.EvictLRU)
	a.Size(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("ttl")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.evicts.WithLabelValues("lru")))
	assert.Equal(t, 42.0, testutil.ToFloat64(a.sizeEnt))
}

func TestAdapter_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "dashcache", "", prometheus.Labels{"app": "test"})

	a.ObserveFetch(10*time.Millisecond, nil)
	a.ObserveFetch(time.Millisecond, errors.New("x"))
	a.DomainLoaded(dashboard.DomainEmployees, time.Millisecond, nil)
	a.CycleStarted(dashboard.RoleOwner)

	assert.Equal(t, 2, testutil.CollectAndCount(a.fetchDur))
	assert.Equal(t, 1, testutil.CollectAndCount(a.domainDur))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.cycles.WithLabelValues("owner")))
}

// The adapter plugs straight into a store.
func TestAdapter_WithStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "dashcache", "cache", nil)
	s := cache.New(cache.Options{Capacity: 1, Metrics: a})
	t.Cleanup(func() { _ = s.Close() })

	s.Set("a", 1)
	s.Set("b", 2)
	s.Get("b")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("lru")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.sizeEnt))
}

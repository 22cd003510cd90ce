package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/IvanBrykalov/dashcache/keys"
)

// ErrType is returned by Fetch when the cached value has an unexpected type.
var ErrType = errors.New("cache: cached value has unexpected type")

// Supplier produces the value for a missing key. Its error is returned to
// the caller as is and nothing is cached.
type Supplier func(ctx context.Context) (any, error)

// GetOrFetch returns the cached value for key, or calls supplier, stores its
// result and returns it. ttl <= 0 lets the resolver decide from the key string.
//
// Concurrent misses on the same key share one supplier call. A caller that
// arrives after the key has been invalidated never joins a call started
// before the invalidation, and a result for a key invalidated while its
// supplier was running is returned but not stored.
func (s *Store) GetOrFetch(ctx context.Context, key string, supplier Supplier, ttl time.Duration) (any, error) {
	if ttl <= 0 {
		ttl = s.resolver.Resolve(key)
	}
	return s.getOrFetch(ctx, key, supplier, ttl)
}

// GetOrFetchKey is GetOrFetch for a structured key. ttl <= 0 uses the
// lifetime of key.Domain.
func (s *Store) GetOrFetchKey(ctx context.Context, key keys.Key, supplier Supplier, ttl time.Duration) (any, error) {
	if ttl <= 0 {
		ttl = s.resolver.For(key.Domain)
	}
	return s.getOrFetch(ctx, key.String(), supplier, ttl)
}

// Fetch is GetOrFetchKey with a typed supplier.
func Fetch[T any](ctx context.Context, s *Store, key keys.Key, fn func(context.Context) (T, error), ttl time.Duration) (T, error) {
	var zero T
	v, err := s.GetOrFetchKey(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) }, ttl)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrType, key, v, zero)
	}
	return t, nil
}

func (s *Store) getOrFetch(ctx context.Context, key string, supplier Supplier, ttl time.Duration) (any, error) {
	for {
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		if s.closed.Load() {
			return nil, ErrClosed
		}

		gen := s.Generation()
		flight := strconv.FormatUint(gen, 10) + "|" + key
		led := false
		v, err, _ := s.sf.Do(ctx, flight, func() (any, error) {
			led = true
			if v, ok := s.peek(key); ok {
				return v, nil
			}
			return s.fetch(ctx, key, supplier, ttl, gen)
		})
		// A joined call that died with its leader's context is retried
		// under ours while ours is still live.
		if err != nil && !led && ctx.Err() == nil && isContextErr(err) {
			continue
		}
		return v, err
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// peek is Get without hit/miss accounting, used to re-check inside a flight.
func (s *Store) peek(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(key, true)
}

func (s *Store) fetch(ctx context.Context, key string, supplier Supplier, ttl time.Duration, gen uint64) (any, error) {
	ctx, span := s.tracer.Start(ctx, "cache.fetch", trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
	))
	defer span.End()

	start := time.Now()
	v, err := supplier(ctx)
	s.fetches.Add(1)
	s.opt.Metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !s.setIfValid(key, v, ttl, gen) {
		s.staleWrites.Add(1)
		span.SetAttributes(attribute.Bool("cache.stale_write", true))
	}
	return v, nil
}

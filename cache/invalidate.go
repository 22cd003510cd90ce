package cache

import (
	"strings"
	"time"
)

// maxInvalidations bounds the invalidation log. A fetch that started before
// the oldest retained record cannot be checked precisely and is treated as
// invalidated.
const maxInvalidations = 256

// invalidation records one Delete (exact) or ClearByPrefix/Clear (prefix).
type invalidation struct {
	gen    uint64
	target string
	exact  bool
}

func (inv invalidation) covers(key string) bool {
	if inv.exact {
		return key == inv.target
	}
	return strings.HasPrefix(key, inv.target)
}

// Generation returns the current invalidation generation. It grows by one on
// every Delete, ClearByPrefix and Clear.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Store) recordInvalidationLocked(target string, exact bool) {
	s.gen++
	s.invs = append(s.invs, invalidation{gen: s.gen, target: target, exact: exact})
	if len(s.invs) > maxInvalidations {
		s.invs = append(s.invs[:0:0], s.invs[len(s.invs)-maxInvalidations:]...)
	}
}

// invalidatedSinceLocked reports whether key was covered by an invalidation
// recorded after generation since.
func (s *Store) invalidatedSinceLocked(key string, since uint64) bool {
	if s.gen == since {
		return false
	}
	if len(s.invs) == 0 || s.invs[0].gen > since+1 {
		return true
	}
	for _, inv := range s.invs {
		if inv.gen > since && inv.covers(key) {
			return true
		}
	}
	return false
}

// setIfValid stores v unless key was invalidated after generation since.
// It reports whether the value was stored.
func (s *Store) setIfValid(key string, v any, ttl time.Duration, since uint64) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidatedSinceLocked(key, since) {
		return false
	}
	s.setLocked(key, v, ttl)
	return true
}

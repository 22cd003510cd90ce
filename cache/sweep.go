package cache

import "time"

func (s *Store) sweepLoop(every time.Duration) {
	defer close(s.sweepDone)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Sweep drops all expired entries now and returns how many were removed.
func (s *Store) Sweep() int {
	if s.closed.Load() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.purgeExpiredLocked(s.now())
	if n > 0 {
		s.opt.Metrics.Size(s.len)
	}
	return n
}

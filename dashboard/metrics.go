package dashboard

import "time"

// Metrics receives loader events. NoopMetrics is used when none is set.
type Metrics interface {
	// DomainLoaded reports the terminal update of one domain; err is nil on success.
	DomainLoaded(domain Domain, d time.Duration, err error)
	CycleStarted(role Role)
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) DomainLoaded(Domain, time.Duration, error) {}
func (NoopMetrics) CycleStarted(Role)                         {}

var _ Metrics = NoopMetrics{}

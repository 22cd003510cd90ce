package dashboard

// Slice is one domain's part of the dashboard state.
type Slice struct {
	Data    any
	Loading bool
	// Err is kept for diagnostics only; it never reaches State.Error.
	Err error
}

// State is the published dashboard state.
type State struct {
	Epoch        uint64 // load cycle that produced this state
	Role         Role
	Organization *Organization
	User         *User
	Domains      map[Domain]Slice
	Loading      bool
	Error        error
}

// Ready reports whether the shell can render: the aggregate is not loading
// and both context values are present. It does not wait for domains.
func (s State) Ready() bool {
	return !s.Loading && s.Organization != nil && s.User != nil
}

// Settled reports whether no domain is still loading.
func (s State) Settled() bool {
	for _, sl := range s.Domains {
		if sl.Loading {
			return false
		}
	}
	return true
}

// Clone copies the domain map. Domain data is shared and treated as immutable.
func (s State) Clone() State {
	out := s
	out.Domains = make(map[Domain]Slice, len(s.Domains))
	for d, sl := range s.Domains {
		out.Domains[d] = sl
	}
	return out
}

// Msg is an input to Reduce.
type Msg interface {
	cycle() uint64
}

// CycleStarted opens a new load cycle. It resets the state and raises the
// aggregate Loading flag. Epochs not above the current one are ignored.
type CycleStarted struct {
	Epoch        uint64
	Role         Role
	Organization *Organization
	User         *User
}

// ShellReady puts every listed domain at its empty default, loading, and
// clears the aggregate Loading flag.
type ShellReady struct {
	Epoch   uint64
	Domains []Domain
}

// SetupFailed ends a cycle that could not start: the aggregate Error is set,
// Loading is cleared and the listed domains sit at empty defaults, not loading.
type SetupFailed struct {
	Epoch   uint64
	Domains []Domain
	Err     error
}

// DomainLoaded is the successful terminal message of one domain.
type DomainLoaded struct {
	Epoch  uint64
	Domain Domain
	Data   any
}

// DomainFailed is the failed terminal message of one domain.
type DomainFailed struct {
	Epoch  uint64
	Domain Domain
	Err    error
}

func (m CycleStarted) cycle() uint64 { return m.Epoch }
func (m ShellReady) cycle() uint64   { return m.Epoch }
func (m SetupFailed) cycle() uint64  { return m.Epoch }
func (m DomainLoaded) cycle() uint64 { return m.Epoch }
func (m DomainFailed) cycle() uint64 { return m.Epoch }

// Reduce applies m to s and returns the next state. It never mutates s.
// Messages from another cycle, a second terminal message for a domain and
// messages for domains outside the cycle leave s unchanged.
func Reduce(s State, m Msg) State {
	next, _ := reduce(s, m)
	return next
}

// reduce is Reduce that also reports whether m was applied.
func reduce(s State, m Msg) (State, bool) {
	if start, ok := m.(CycleStarted); ok {
		if start.Epoch <= s.Epoch {
			return s, false
		}
		return State{
			Epoch:        start.Epoch,
			Role:         start.Role,
			Organization: start.Organization,
			User:         start.User,
			Domains:      map[Domain]Slice{},
			Loading:      true,
		}, true
	}
	if m.cycle() != s.Epoch {
		return s, false
	}

	switch m := m.(type) {
	case ShellReady:
		if !s.Loading {
			return s, false
		}
		next := s.Clone()
		for _, d := range m.Domains {
			next.Domains[d] = Slice{Data: Empty(d), Loading: true}
		}
		next.Loading = false
		return next, true

	case SetupFailed:
		if !s.Loading {
			return s, false
		}
		next := s.Clone()
		for _, d := range m.Domains {
			next.Domains[d] = Slice{Data: Empty(d)}
		}
		next.Loading = false
		next.Error = m.Err
		return next, true

	case DomainLoaded:
		if sl, ok := s.Domains[m.Domain]; !ok || !sl.Loading {
			return s, false
		}
		next := s.Clone()
		next.Domains[m.Domain] = Slice{Data: m.Data}
		return next, true

	case DomainFailed:
		if sl, ok := s.Domains[m.Domain]; !ok || !sl.Loading {
			return s, false
		}
		next := s.Clone()
		next.Domains[m.Domain] = Slice{Data: Empty(m.Domain), Err: m.Err}
		return next, true
	}
	return s, false
}

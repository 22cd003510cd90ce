package dashboard

import "sync"

// Organization is the organization the dashboard is loaded for.
type Organization struct {
	ID   string
	Name string
}

// User is the signed-in user.
type User struct {
	ID   string
	Name string
}

// ContextProvider supplies the organization and user, already loaded by
// the caller. Either may be nil when not yet known.
type ContextProvider interface {
	Current() (*Organization, *User)
}

// StaticContext is a ContextProvider holding values set by the caller.
type StaticContext struct {
	mu   sync.RWMutex
	org  *Organization
	user *User
}

// NewStaticContext returns a provider holding org and user.
func NewStaticContext(org *Organization, user *User) *StaticContext {
	return &StaticContext{org: org, user: user}
}

// Set replaces both values.
func (c *StaticContext) Set(org *Organization, user *User) {
	c.mu.Lock()
	c.org, c.user = org, user
	c.mu.Unlock()
}

func (c *StaticContext) Current() (*Organization, *User) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.org, c.user
}

// Package ttl decides how long a cache entry lives.
//
// A Resolver holds an ordered table of (domain, duration) rules. Resolve
// matches rule domains as substrings of a rendered key; the first match in
// table order wins, otherwise the default applies. For looks a domain up
// exactly and is what callers holding a structured key should use.
//
// Table order is the tie-break for ambiguous keys. DefaultRules lists the
// high-volatility domains first, then medium, then low, so a key that
// mentions several domains gets the shortest of their lifetimes.
package ttl

import (
	"strings"
	"time"
)

// Class groups domains by how fast their data changes.
type Class int

const (
	High Class = iota
	Medium
	Low
)

func (c Class) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// DefaultTTL applies to keys that match no rule.
const DefaultTTL = 5 * time.Minute

// Rule binds a domain to a lifetime.
type Rule struct {
	Domain string
	TTL    time.Duration
	Class  Class
}

// DefaultRules returns the built-in table, ordered High, Medium, Low.
func DefaultRules() []Rule {
	return []Rule{
		{Domain: "warnings", TTL: 2 * time.Minute, Class: High},
		{Domain: "followUps", TTL: 2 * time.Minute, Class: High},
		{Domain: "employees", TTL: 2 * time.Minute, Class: High},
		{Domain: "metrics", TTL: 2 * time.Minute, Class: High},
		{Domain: "reports", TTL: 2 * time.Minute, Class: High},

		{Domain: "organization", TTL: 10 * time.Minute, Class: Medium},
		{Domain: "settings", TTL: 10 * time.Minute, Class: Medium},
		{Domain: "permissions", TTL: 10 * time.Minute, Class: Medium},
		{Domain: "teams", TTL: 10 * time.Minute, Class: Medium},
		{Domain: "categories", TTL: 15 * time.Minute, Class: Medium},

		{Domain: "roles", TTL: 30 * time.Minute, Class: Low},
		{Domain: "sectors", TTL: 60 * time.Minute, Class: Low},
		{Domain: "userOrgIndex", TTL: 60 * time.Minute, Class: Low},
	}
}

// Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	rules []Rule
	exact map[string]time.Duration
	def   time.Duration
}

// New builds a resolver over rules in the given order.
// def <= 0 selects DefaultTTL; a nil rules slice selects DefaultRules.
// Rules with an empty domain or non-positive TTL are dropped.
func New(def time.Duration, rules []Rule) *Resolver {
	if def <= 0 {
		def = DefaultTTL
	}
	if rules == nil {
		rules = DefaultRules()
	}
	r := &Resolver{def: def, exact: make(map[string]time.Duration, len(rules))}
	for _, rl := range rules {
		if rl.Domain == "" || rl.TTL <= 0 {
			continue
		}
		r.rules = append(r.rules, rl)
		if _, dup := r.exact[rl.Domain]; !dup {
			r.exact[rl.Domain] = rl.TTL
		}
	}
	return r
}

// Default returns a resolver over DefaultRules and DefaultTTL.
func Default() *Resolver { return New(0, nil) }

// Resolve returns the lifetime for a rendered key by substring match.
func (r *Resolver) Resolve(key string) time.Duration {
	if rl, ok := r.Match(key); ok {
		return rl.TTL
	}
	return r.def
}

// Match returns the first rule whose domain occurs in key.
func (r *Resolver) Match(key string) (Rule, bool) {
	for _, rl := range r.rules {
		if contains(key, rl.Domain) {
			return rl, true
		}
	}
	return Rule{}, false
}

// For returns the lifetime of an exact domain, or the default.
func (r *Resolver) For(domain string) time.Duration {
	if d, ok := r.exact[domain]; ok {
		return d
	}
	return r.def
}

// Default reports the fallback lifetime.
func (r *Resolver) Default() time.Duration { return r.def }

// Rules returns a copy of the table in resolution order.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// WithOverrides returns a new resolver whose rules take durations from
// overrides where present. Domains match case-insensitively, since config
// loaders lower-case map keys. Order is preserved; unknown domains are
// appended as Medium rules after the existing table.
func (r *Resolver) WithOverrides(overrides map[string]time.Duration) *Resolver {
	if len(overrides) == 0 {
		return r
	}
	folded := make(map[string]time.Duration, len(overrides))
	for dom, d := range overrides {
		folded[strings.ToLower(dom)] = d
	}
	rules := r.Rules()
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		low := strings.ToLower(rules[i].Domain)
		if d, ok := folded[low]; ok {
			rules[i].TTL = d
		}
		seen[low] = true
	}
	for _, dom := range sortedKeys(overrides) {
		if !seen[strings.ToLower(dom)] {
			rules = append(rules, Rule{Domain: dom, TTL: overrides[dom], Class: Medium})
			seen[strings.ToLower(dom)] = true
		}
	}
	return New(r.def, rules)
}

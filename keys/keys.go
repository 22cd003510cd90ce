// Package keys builds the scope-qualified cache keys used across dashcache.
//
// A key renders as "<scope>:<scopeID>:<domain>[:<part>...]", for example
//
//	org:acme:employees
//	org:acme:employees:manager:u42
//	user:u42:permissions
//
// Scope IDs and parts are escaped ("%" as "%25", ":" as "%3A"), so an ID
// containing the separator never widens a scope prefix: "org:acme:" does not
// match keys of organization "acme:x".
//
// The cache store treats the rendered string as opaque. The structured form
// keeps the domain next to the key so TTL resolution never has to guess it
// from the string contents.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Scope is the ownership prefix of a key.
type Scope string

const (
	ScopeOrg  Scope = "org"
	ScopeUser Scope = "user"
)

// Sep separates key segments.
const Sep = ":"

var (
	escaper   = strings.NewReplacer("%", "%25", Sep, "%3A")
	unescaper = strings.NewReplacer("%3A", Sep, "%25", "%")
)

// ErrMalformed is returned by Parse for strings that are not scope-qualified keys.
var ErrMalformed = errors.New("keys: malformed key")

// Key is a structured cache key.
type Key struct {
	Scope   Scope
	ScopeID string
	Domain  string
	Parts   []string // optional discriminators, e.g. {"manager", "u42"}
}

// Org returns an organization-scoped key.
func Org(orgID, domain string, parts ...string) Key {
	return Key{Scope: ScopeOrg, ScopeID: orgID, Domain: domain, Parts: parts}
}

// User returns a user-scoped key.
func User(userID, domain string, parts ...string) Key {
	return Key{Scope: ScopeUser, ScopeID: userID, Domain: domain, Parts: parts}
}

// String renders the key in its canonical colon-separated form.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Scope))
	b.WriteString(Sep)
	b.WriteString(escaper.Replace(k.ScopeID))
	b.WriteString(Sep)
	b.WriteString(k.Domain)
	for _, p := range k.Parts {
		b.WriteString(Sep)
		b.WriteString(escaper.Replace(p))
	}
	return b.String()
}

// Prefix returns the scope prefix this key lives under (e.g. "org:acme:").
func (k Key) Prefix() string { return ScopePrefix(k.Scope, k.ScopeID) }

// ScopePrefix returns "<scope>:<id>:". The trailing separator matters:
// "org:A:" must not match keys of organization "AB".
func ScopePrefix(s Scope, id string) string {
	return string(s) + Sep + escaper.Replace(id) + Sep
}

// OrgPrefix is ScopePrefix(ScopeOrg, id).
func OrgPrefix(orgID string) string { return ScopePrefix(ScopeOrg, orgID) }

// UserPrefix is ScopePrefix(ScopeUser, id).
func UserPrefix(userID string) string { return ScopePrefix(ScopeUser, userID) }

// Parse splits a rendered key back into its structured form.
func Parse(s string) (Key, error) {
	seg := strings.Split(s, Sep)
	if len(seg) < 3 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	sc := Scope(seg[0])
	if sc != ScopeOrg && sc != ScopeUser {
		return Key{}, fmt.Errorf("%w: unknown scope %q", ErrMalformed, seg[0])
	}
	if seg[1] == "" || seg[2] == "" {
		return Key{}, fmt.Errorf("%w: empty scope id or domain in %q", ErrMalformed, s)
	}
	k := Key{Scope: sc, ScopeID: unescaper.Replace(seg[1]), Domain: seg[2]}
	for _, p := range seg[3:] {
		k.Parts = append(k.Parts, unescaper.Replace(p))
	}
	return k, nil
}

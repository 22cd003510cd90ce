package ttl

import (
	"testing"
	"time"
)

func TestResolve_HighVolatility(t *testing.T) {
	t.Parallel()

	r := Default()
	if got := r.Resolve("org:acme:employees"); got != 2*time.Minute {
		t.Fatalf("employees ttl = %v, want 2m", got)
	}
	if got := r.Resolve("org:acme:employees:manager:u42"); got != 2*time.Minute {
		t.Fatalf("discriminated employees ttl = %v, want 2m", got)
	}
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	r := Default()
	if got := r.Resolve("org:acme:something-else"); got != DefaultTTL {
		t.Fatalf("unknown key ttl = %v, want %v", got, DefaultTTL)
	}
	if got := New(42*time.Second, nil).Resolve("nothing"); got != 42*time.Second {
		t.Fatalf("custom default not applied: %v", got)
	}
}

func TestResolve_MediumAndLow(t *testing.T) {
	t.Parallel()

	r := Default()
	if got := r.Resolve("org:acme:categories"); got != 15*time.Minute {
		t.Fatalf("categories ttl = %v", got)
	}
	if got := r.Resolve("user:u1:userOrgIndex"); got != time.Hour {
		t.Fatalf("userOrgIndex ttl = %v", got)
	}
}

// A key mentioning several domains takes the first rule in table order,
// which is the most volatile one.
func TestResolve_TieBreakByTableOrder(t *testing.T) {
	t.Parallel()

	r := Default()
	if got := r.Resolve("user:u1:warnings:roles"); got != 2*time.Minute {
		t.Fatalf("ambiguous key ttl = %v, want warnings ttl 2m", got)
	}
	rl, ok := r.Match("user:u1:roles:warnings")
	if !ok || rl.Domain != "warnings" {
		t.Fatalf("Match picked %+v ok=%v, want warnings", rl, ok)
	}

	// Reversing the table reverses the outcome.
	custom := New(0, []Rule{
		{Domain: "roles", TTL: 30 * time.Minute},
		{Domain: "warnings", TTL: 2 * time.Minute},
	})
	if got := custom.Resolve("user:u1:warnings:roles"); got != 30*time.Minute {
		t.Fatalf("custom order ttl = %v, want 30m", got)
	}
}

func TestFor_ExactDomain(t *testing.T) {
	t.Parallel()

	r := Default()
	if got := r.For("teams"); got != 10*time.Minute {
		t.Fatalf("For(teams) = %v", got)
	}
	// "employee" is a substring of a rule but not a domain.
	if got := r.For("employee"); got != DefaultTTL {
		t.Fatalf("For(employee) = %v, want default", got)
	}
}

func TestNew_DropsInvalidRules(t *testing.T) {
	t.Parallel()

	r := New(0, []Rule{{Domain: "", TTL: time.Second}, {Domain: "x", TTL: 0}, {Domain: "y", TTL: time.Second}})
	if n := len(r.Rules()); n != 1 {
		t.Fatalf("want 1 rule, got %d", n)
	}
}

func TestWithOverrides(t *testing.T) {
	t.Parallel()

	base := Default()
	r := base.WithOverrides(map[string]time.Duration{
		"employees": 30 * time.Second,
		"audit":     time.Minute,
	})
	if got := r.For("employees"); got != 30*time.Second {
		t.Fatalf("override not applied: %v", got)
	}
	if got := base.For("employees"); got != 2*time.Minute {
		t.Fatalf("base resolver mutated: %v", got)
	}
	if got := r.Resolve("org:a:audit"); got != time.Minute {
		t.Fatalf("appended rule not applied: %v", got)
	}
	rules := r.Rules()
	if rules[0].Domain != "warnings" || rules[len(rules)-1].Domain != "audit" {
		t.Fatalf("order not preserved: first=%s last=%s", rules[0].Domain, rules[len(rules)-1].Domain)
	}
}

// Config loaders lower-case map keys; overrides still reach camelCase domains.
func TestWithOverrides_CaseInsensitive(t *testing.T) {
	t.Parallel()

	r := Default().WithOverrides(map[string]time.Duration{"followups": 45 * time.Second})
	if got := r.For("followUps"); got != 45*time.Second {
		t.Fatalf("followUps = %v, want 45s", got)
	}
	if n, want := len(r.Rules()), len(DefaultRules()); n != want {
		t.Fatalf("override must not append a duplicate rule: %d rules, want %d", n, want)
	}
}

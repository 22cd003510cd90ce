package ttl

import (
	"sort"
	"strings"
	"time"
)

func contains(key, domain string) bool { return strings.Contains(key, domain) }

// sortedKeys keeps appended overrides deterministic.
func sortedKeys(m map[string]time.Duration) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

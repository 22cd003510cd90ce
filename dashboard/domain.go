package dashboard

import (
	"sort"

	"github.com/IvanBrykalov/dashcache/source"
)

// Domain names one slice of dashboard data. The values double as the
// domain segment of cache keys and as TTL table entries.
type Domain string

const (
	DomainOrganization Domain = "organization"
	DomainCategories   Domain = "categories"
	DomainPermissions  Domain = "permissions"
	DomainEmployees    Domain = "employees"
	DomainTeams        Domain = "teams"
	DomainReports      Domain = "reports"
	DomainMetrics      Domain = "metrics"
	DomainFollowUps    Domain = "followUps"
	DomainWarnings     Domain = "warnings"
)

// Role selects the role-specific domains.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleHROperator Role = "hr-operator"
	RoleTeamLead   Role = "team-lead"
)

// CoreDomains are required for every role.
func CoreDomains() []Domain {
	return []Domain{DomainOrganization, DomainCategories, DomainPermissions}
}

var roleDomains = map[Role][]Domain{
	RoleOwner:      {DomainEmployees, DomainTeams, DomainReports, DomainMetrics},
	RoleHROperator: {DomainEmployees, DomainFollowUps, DomainWarnings, DomainReports, DomainMetrics},
	RoleTeamLead:   {DomainEmployees, DomainFollowUps},
}

// RoleDomains returns the role-specific domains; unknown roles have none.
func RoleDomains(role Role) []Domain {
	return append([]Domain(nil), roleDomains[role]...)
}

// RequiredDomains returns core ∪ RoleDomains(role) minus skip, core first.
func RequiredDomains(role Role, skip ...Domain) []Domain {
	skipped := make(map[Domain]bool, len(skip))
	for _, d := range skip {
		skipped[d] = true
	}
	var out []Domain
	seen := make(map[Domain]bool)
	for _, d := range append(CoreDomains(), roleDomains[role]...) {
		if skipped[d] || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Permissions is the permissions domain payload.
type Permissions struct {
	Role    Role
	Actions []string
}

// Can reports whether action is granted.
func (p Permissions) Can(action string) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

var roleActions = map[Role][]string{
	RoleOwner:      {"employees:write", "org:manage", "reports:read", "settings:write", "teams:write", "warnings:write"},
	RoleHROperator: {"employees:write", "followUps:write", "reports:read", "warnings:write"},
	RoleTeamLead:   {"employees:read", "followUps:write"},
}

// PermissionsFor derives the permission set of role.
func PermissionsFor(role Role) Permissions {
	return Permissions{Role: role, Actions: append([]string(nil), roleActions[role]...)}
}

// Summary is the metrics domain payload, computed from the org's
// employees, warnings and follow-ups.
type Summary struct {
	Employees          int
	Warnings           int
	OpenWarnings       int
	PendingFollowUps   int
	WarningsByCategory map[string]int
}

// Summarize computes a Summary. Warnings with status "open" count as open;
// follow-ups with status "pending" count as pending.
func Summarize(employees, warnings, followUps []source.Document) Summary {
	s := Summary{
		Employees:          len(employees),
		Warnings:           len(warnings),
		WarningsByCategory: make(map[string]int),
	}
	for _, w := range warnings {
		if w.Text("status") == "open" {
			s.OpenWarnings++
		}
		if c := w.Text("categoryId"); c != "" {
			s.WarningsByCategory[c]++
		}
	}
	for _, f := range followUps {
		if f.Text("status") == "pending" {
			s.PendingFollowUps++
		}
	}
	return s
}

// Empty returns the empty default of a domain's data.
func Empty(d Domain) any {
	switch d {
	case DomainOrganization:
		return source.Document{}
	case DomainPermissions:
		return Permissions{}
	case DomainMetrics:
		return Summary{WarningsByCategory: map[string]int{}}
	default:
		return []source.Document{}
	}
}

func sortedDomains(ds []Domain) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	sort.Strings(out)
	return out
}

package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/IvanBrykalov/dashcache/source"
)

func TestRequiredDomains(t *testing.T) {
	core := []Domain{DomainOrganization, DomainCategories, DomainPermissions}

	assert.Equal(t, append(core, DomainEmployees, DomainFollowUps), RequiredDomains(RoleTeamLead))
	assert.Equal(t,
		append(core, DomainEmployees, DomainFollowUps, DomainWarnings, DomainReports, DomainMetrics),
		RequiredDomains(RoleHROperator))
	assert.Equal(t,
		append(core, DomainEmployees, DomainTeams, DomainReports, DomainMetrics),
		RequiredDomains(RoleOwner))
	assert.Equal(t, core, RequiredDomains(Role("guest")), "unknown role gets core only")
}

func TestRequiredDomains_Skip(t *testing.T) {
	got := RequiredDomains(RoleOwner, DomainMetrics, DomainCategories)
	assert.NotContains(t, got, DomainMetrics)
	assert.NotContains(t, got, DomainCategories)
	assert.Contains(t, got, DomainEmployees)
}

func TestPermissionsFor(t *testing.T) {
	p := PermissionsFor(RoleTeamLead)
	assert.True(t, p.Can("followUps:write"))
	assert.False(t, p.Can("org:manage"))
	assert.Empty(t, PermissionsFor(Role("guest")).Actions)
}

func TestSummarize(t *testing.T) {
	doc := func(fields map[string]any) source.Document { return source.Document{Fields: fields} }
	s := Summarize(
		[]source.Document{doc(nil), doc(nil)},
		[]source.Document{
			doc(map[string]any{"status": "open", "categoryId": "c1"}),
			doc(map[string]any{"status": "closed", "categoryId": "c1"}),
			doc(map[string]any{"status": "open", "categoryId": "c2"}),
		},
		[]source.Document{doc(map[string]any{"status": "pending"}), doc(map[string]any{"status": "done"})},
	)
	assert.Equal(t, 2, s.Employees)
	assert.Equal(t, 3, s.Warnings)
	assert.Equal(t, 2, s.OpenWarnings)
	assert.Equal(t, 1, s.PendingFollowUps)
	assert.Equal(t, map[string]int{"c1": 2, "c2": 1}, s.WarningsByCategory)
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, []source.Document{}, Empty(DomainEmployees))
	assert.Equal(t, source.Document{}, Empty(DomainOrganization))
	assert.Equal(t, Permissions{}, Empty(DomainPermissions))
	assert.IsType(t, Summary{}, Empty(DomainMetrics))
}

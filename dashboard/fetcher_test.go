package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/dashcache/source"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) FetchByOrg(ctx context.Context, orgID, collection string) ([]source.Document, error) {
	args := m.Called(ctx, orgID, collection)
	docs, _ := args.Get(0).([]source.Document)
	return docs, args.Error(1)
}

func (m *mockSource) FetchByKey(ctx context.Context, orgID, collection, id string) (*source.Document, error) {
	args := m.Called(ctx, orgID, collection, id)
	doc, _ := args.Get(0).(*source.Document)
	return doc, args.Error(1)
}

func (m *mockSource) Query(ctx context.Context, orgID, collection, field, value string) ([]source.Document, error) {
	args := m.Called(ctx, orgID, collection, field, value)
	docs, _ := args.Get(0).([]source.Document)
	return docs, args.Error(1)
}

func session(role Role) Session {
	return Session{Organization: &Organization{ID: "org1"}, User: &User{ID: "u1"}, Role: role}
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "org:org1:employees:manager:u1", KeyFor(DomainEmployees, session(RoleTeamLead)).String())
	assert.Equal(t, "org:org1:employees", KeyFor(DomainEmployees, session(RoleOwner)).String())
	assert.Equal(t, "user:u1:permissions:org1:owner", KeyFor(DomainPermissions, session(RoleOwner)).String())
	assert.NotEqual(t, KeyFor(DomainPermissions, session(RoleOwner)), KeyFor(DomainPermissions, session(RoleTeamLead)),
		"permissions depend on the role")
	assert.Equal(t, "org:org1:followUps", KeyFor(DomainFollowUps, session(RoleOwner)).String())
}

func TestSourceFetcher_TeamLeadEmployeesByManager(t *testing.T) {
	src := &mockSource{}
	want := []source.Document{{ID: "e1"}}
	src.On("Query", mock.Anything, "org1", source.Employees, "managerId", "u1").Return(want, nil).Once()

	got, err := NewSourceFetcher(src).Fetch(context.Background(), DomainEmployees, session(RoleTeamLead))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	src.AssertExpectations(t)
}

func TestSourceFetcher_Organization(t *testing.T) {
	src := &mockSource{}
	src.On("FetchByKey", mock.Anything, "org1", source.Organizations, "org1").
		Return(&source.Document{ID: "org1"}, nil).Once()

	got, err := NewSourceFetcher(src).Fetch(context.Background(), DomainOrganization, session(RoleOwner))
	require.NoError(t, err)
	assert.Equal(t, source.Document{ID: "org1"}, got)
	src.AssertExpectations(t)
}

func TestSourceFetcher_OrganizationMissing(t *testing.T) {
	src := &mockSource{}
	src.On("FetchByKey", mock.Anything, "org1", source.Organizations, "org1").Return(nil, nil).Once()

	_, err := NewSourceFetcher(src).Fetch(context.Background(), DomainOrganization, session(RoleOwner))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSourceFetcher_PermissionsNeedNoSource(t *testing.T) {
	src := &mockSource{}
	got, err := NewSourceFetcher(src).Fetch(context.Background(), DomainPermissions, session(RoleHROperator))
	require.NoError(t, err)
	assert.Equal(t, PermissionsFor(RoleHROperator), got)
	src.AssertNotCalled(t, "FetchByOrg", mock.Anything, mock.Anything, mock.Anything)
}

func TestSourceFetcher_Metrics(t *testing.T) {
	src := &mockSource{}
	src.On("FetchByOrg", mock.Anything, "org1", source.Employees).Return([]source.Document{{ID: "e1"}}, nil)
	src.On("FetchByOrg", mock.Anything, "org1", source.Warnings).
		Return([]source.Document{{ID: "w1", Fields: map[string]any{"status": "open"}}}, nil)
	src.On("FetchByOrg", mock.Anything, "org1", source.FollowUps).Return([]source.Document{}, nil)

	got, err := NewSourceFetcher(src).Fetch(context.Background(), DomainMetrics, session(RoleOwner))
	require.NoError(t, err)
	s := got.(Summary)
	assert.Equal(t, 1, s.Employees)
	assert.Equal(t, 1, s.OpenWarnings)
}

func TestSourceFetcher_MetricsError(t *testing.T) {
	boom := errors.New("boom")
	src := &mockSource{}
	src.On("FetchByOrg", mock.Anything, "org1", source.Employees).Return(nil, boom)
	src.On("FetchByOrg", mock.Anything, "org1", mock.Anything).Return([]source.Document{}, nil)

	_, err := NewSourceFetcher(src).Fetch(context.Background(), DomainMetrics, session(RoleOwner))
	assert.ErrorIs(t, err, boom)
}

package dashboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func started(epoch uint64) State {
	s := Reduce(State{}, CycleStarted{
		Epoch:        epoch,
		Role:         RoleTeamLead,
		Organization: &Organization{ID: "org1"},
		User:         &User{ID: "u1"},
	})
	return Reduce(s, ShellReady{Epoch: epoch, Domains: RequiredDomains(RoleTeamLead)})
}

func TestReduce_ShellReady(t *testing.T) {
	s := Reduce(State{}, CycleStarted{Epoch: 1, Organization: &Organization{ID: "o"}, User: &User{ID: "u"}})
	assert.True(t, s.Loading)
	assert.False(t, s.Ready())

	s = Reduce(s, ShellReady{Epoch: 1, Domains: []Domain{DomainEmployees}})
	assert.False(t, s.Loading)
	assert.True(t, s.Ready())
	assert.True(t, s.Domains[DomainEmployees].Loading)
	assert.Equal(t, Empty(DomainEmployees), s.Domains[DomainEmployees].Data)
	assert.False(t, s.Settled())
}

func TestReduce_SingleTerminalUpdate(t *testing.T) {
	s := started(1)

	s = Reduce(s, DomainLoaded{Epoch: 1, Domain: DomainEmployees, Data: "first"})
	require.False(t, s.Domains[DomainEmployees].Loading)

	again := Reduce(s, DomainFailed{Epoch: 1, Domain: DomainEmployees, Err: errors.New("late")})
	assert.Equal(t, "first", again.Domains[DomainEmployees].Data)
	assert.NoError(t, again.Domains[DomainEmployees].Err)

	again = Reduce(s, DomainLoaded{Epoch: 1, Domain: DomainEmployees, Data: "second"})
	assert.Equal(t, "first", again.Domains[DomainEmployees].Data)
}

func TestReduce_DropsSupersededCycle(t *testing.T) {
	s := started(2)

	next := Reduce(s, DomainLoaded{Epoch: 1, Domain: DomainEmployees, Data: "old"})
	assert.True(t, next.Domains[DomainEmployees].Loading)
	assert.Equal(t, Empty(DomainEmployees), next.Domains[DomainEmployees].Data)

	next = Reduce(s, CycleStarted{Epoch: 1})
	assert.Equal(t, uint64(2), next.Epoch, "older cycle must not restart")
}

func TestReduce_FailureKeepsAggregateClean(t *testing.T) {
	s := started(1)
	s = Reduce(s, DomainFailed{Epoch: 1, Domain: DomainFollowUps, Err: errors.New("boom")})

	sl := s.Domains[DomainFollowUps]
	assert.False(t, sl.Loading)
	assert.Equal(t, Empty(DomainFollowUps), sl.Data)
	assert.EqualError(t, sl.Err, "boom")
	assert.NoError(t, s.Error)
}

func TestReduce_UnknownDomainIgnored(t *testing.T) {
	s := started(1)
	next := Reduce(s, DomainLoaded{Epoch: 1, Domain: DomainReports, Data: 1})
	_, ok := next.Domains[DomainReports]
	assert.False(t, ok)
}

func TestReduce_SetupFailed(t *testing.T) {
	s := Reduce(State{}, CycleStarted{Epoch: 1, Role: RoleOwner})
	s = Reduce(s, SetupFailed{Epoch: 1, Domains: RequiredDomains(RoleOwner), Err: ErrNoContext})

	assert.False(t, s.Loading)
	assert.ErrorIs(t, s.Error, ErrNoContext)
	assert.False(t, s.Ready())
	for d, sl := range s.Domains {
		assert.False(t, sl.Loading, d)
		assert.Equal(t, Empty(d), sl.Data, d)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := started(1)
	_ = Reduce(s, DomainLoaded{Epoch: 1, Domain: DomainEmployees, Data: "x"})
	assert.True(t, s.Domains[DomainEmployees].Loading)
}

package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/dashcache/keys"
	"github.com/IvanBrykalov/dashcache/source"
)

// ErrNotFound is returned when the organization document does not exist.
var ErrNotFound = errors.New("dashboard: not found")

// Session is the context one load cycle runs with.
type Session struct {
	Organization *Organization
	User         *User
	Role         Role
}

// Fetcher produces the cache key and the data of each domain.
type Fetcher interface {
	Key(d Domain, s Session) keys.Key
	Fetch(ctx context.Context, d Domain, s Session) (any, error)
}

// KeyFor is the cache key layout used by SourceFetcher:
//
//	org:<org>:<domain>                       most domains
//	org:<org>:employees:manager:<user>       employees for a team lead
//	user:<user>:permissions:<org>:<role>     permissions
func KeyFor(d Domain, s Session) keys.Key {
	switch {
	case d == DomainEmployees && s.Role == RoleTeamLead:
		return keys.Org(s.Organization.ID, string(d), "manager", s.User.ID)
	case d == DomainPermissions:
		return keys.User(s.User.ID, string(d), s.Organization.ID, string(s.Role))
	default:
		return keys.Org(s.Organization.ID, string(d))
	}
}

// SourceFetcher reads every domain from a source.Source.
type SourceFetcher struct {
	Source source.Source
}

// NewSourceFetcher wraps src.
func NewSourceFetcher(src source.Source) *SourceFetcher {
	return &SourceFetcher{Source: src}
}

func (f *SourceFetcher) Key(d Domain, s Session) keys.Key { return KeyFor(d, s) }

func (f *SourceFetcher) Fetch(ctx context.Context, d Domain, s Session) (any, error) {
	org := s.Organization.ID
	switch d {
	case DomainOrganization:
		doc, err := f.Source.FetchByKey(ctx, org, source.Organizations, org)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("organization %s: %w", org, ErrNotFound)
		}
		return *doc, nil

	case DomainPermissions:
		return PermissionsFor(s.Role), nil

	case DomainEmployees:
		if s.Role == RoleTeamLead {
			return f.Source.Query(ctx, org, source.Employees, "managerId", s.User.ID)
		}
		return f.Source.FetchByOrg(ctx, org, source.Employees)

	case DomainMetrics:
		return f.summary(ctx, org)

	case DomainCategories, DomainTeams, DomainReports, DomainWarnings, DomainFollowUps:
		return f.Source.FetchByOrg(ctx, org, string(d))
	}
	return nil, fmt.Errorf("dashboard: no fetcher for domain %q", d)
}

// summary reads the three input collections concurrently.
func (f *SourceFetcher) summary(ctx context.Context, org string) (Summary, error) {
	var employees, warnings, followUps []source.Document
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		employees, err = f.Source.FetchByOrg(ctx, org, source.Employees)
		return err
	})
	g.Go(func() (err error) {
		warnings, err = f.Source.FetchByOrg(ctx, org, source.Warnings)
		return err
	})
	g.Go(func() (err error) {
		followUps, err = f.Source.FetchByOrg(ctx, org, source.FollowUps)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("metrics: %w", err)
	}
	return Summarize(employees, warnings, followUps), nil
}

var _ Fetcher = (*SourceFetcher)(nil)

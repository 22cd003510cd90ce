// Package source defines the remote document store the dashboard reads from,
// with in-memory, PostgreSQL and Redis implementations.
//
// Documents are grouped by organization and collection. The store is
// read-only from the dashboard's point of view; Put exists on the concrete
// types only to seed data.
package source

import (
	"context"
	"errors"
	"fmt"
)

// Collections known to the dashboard.
const (
	Organizations = "organizations"
	Employees     = "employees"
	Teams         = "teams"
	Categories    = "categories"
	Warnings      = "warnings"
	FollowUps     = "followUps"
	Reports       = "reports"
	Settings      = "settings"
	Sectors       = "sectors"
)

// ErrUnknownCollection is returned for collections outside Collections().
var ErrUnknownCollection = errors.New("source: unknown collection")

// Document is one stored record.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Text returns the named field as a string, or "" if absent or not a string.
func (d Document) Text(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

// Source is the remote data store contract.
type Source interface {
	// FetchByOrg returns every document of collection owned by orgID.
	FetchByOrg(ctx context.Context, orgID, collection string) ([]Document, error)
	// FetchByKey returns one document, or (nil, nil) when it does not exist.
	FetchByKey(ctx context.Context, orgID, collection, id string) (*Document, error)
	// Query returns the documents of collection whose field equals value.
	Query(ctx context.Context, orgID, collection, field, value string) ([]Document, error)
}

// Writer stores documents. Only seeding code writes.
type Writer interface {
	Put(ctx context.Context, orgID, collection string, doc Document) error
}

// Collections lists the valid collection names.
func Collections() []string {
	return []string{Organizations, Employees, Teams, Categories, Warnings, FollowUps, Reports, Settings, Sectors}
}

func checkCollection(c string) error {
	for _, k := range Collections() {
		if k == c {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
}

func matches(d Document, field, value string) bool {
	v, ok := d.Fields[field]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == value
}

package source

import (
	"context"
	"fmt"
)

// Seed writes a small demo organization into w: the organization document,
// two teams, a manager with two reports, categories, one warning, one
// follow-up and one report. It is used by the CLI and the examples.
func Seed(ctx context.Context, w Writer, orgID string) error {
	docs := []struct {
		collection string
		doc        Document
	}{
		{Organizations, Document{ID: orgID, Fields: map[string]any{"name": "Demo " + orgID, "plan": "pro"}}},
		{Teams, Document{ID: "t-ops", Fields: map[string]any{"name": "Operations"}}},
		{Teams, Document{ID: "t-sales", Fields: map[string]any{"name": "Sales"}}},
		{Employees, Document{ID: "u-lead", Fields: map[string]any{"name": "Lead", "teamId": "t-ops", "managerId": ""}}},
		{Employees, Document{ID: "e-1", Fields: map[string]any{"name": "Ana", "teamId": "t-ops", "managerId": "u-lead"}}},
		{Employees, Document{ID: "e-2", Fields: map[string]any{"name": "Bruno", "teamId": "t-ops", "managerId": "u-lead"}}},
		{Employees, Document{ID: "e-3", Fields: map[string]any{"name": "Carla", "teamId": "t-sales", "managerId": "u-other"}}},
		{Categories, Document{ID: "c-late", Fields: map[string]any{"name": "Lateness", "severity": "low"}}},
		{Categories, Document{ID: "c-conduct", Fields: map[string]any{"name": "Conduct", "severity": "high"}}},
		{Warnings, Document{ID: "w-1", Fields: map[string]any{"employeeId": "e-1", "categoryId": "c-late", "status": "open"}}},
		{FollowUps, Document{ID: "f-1", Fields: map[string]any{"warningId": "w-1", "status": "pending"}}},
		{Reports, Document{ID: "r-1", Fields: map[string]any{"title": "Monthly summary"}}},
	}
	for _, d := range docs {
		if err := w.Put(ctx, orgID, d.collection, d.doc); err != nil {
			return fmt.Errorf("seed %s/%s: %w", d.collection, d.doc.ID, err)
		}
	}
	return nil
}

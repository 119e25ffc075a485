package db

import (
	"context"
	"fmt"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// RecordActivity logs a field change on an issue.
func RecordActivity(ctx context.Context, gw Gateway, issueID int, field, oldVal, newVal, changedBy string) error {
	_, err := gw.Insert(ctx, EntityActivity, Record{
		"issue_id":      issueID,
		"field_changed": field,
		"old_value":     oldVal,
		"new_value":     newVal,
		"changed_by":    changedBy,
		"created_at":    nowString(),
	})
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// GetActivity retrieves activity log entries for an issue, most recent first.
// A limit of zero or less returns everything.
func GetActivity(ctx context.Context, gw Gateway, issueID int, limit int) ([]model.Activity, error) {
	recs, err := gw.List(ctx, EntityActivity,
		[]Filter{Eq("issue_id", issueID)},
		[]Sort{Desc("created_at"), Desc("id")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	activities := make([]model.Activity, 0, len(recs))
	for _, r := range recs {
		createdAt, err := r.Time("created_at")
		if err != nil {
			return nil, fmt.Errorf("parsing activity created_at: %w", err)
		}
		activities = append(activities, model.Activity{
			ID:           r.Int("id"),
			IssueID:      r.Int("issue_id"),
			FieldChanged: r.String("field_changed"),
			OldValue:     r.String("old_value"),
			NewValue:     r.String("new_value"),
			ChangedBy:    r.String("changed_by"),
			CreatedAt:    createdAt,
		})
	}
	return activities, nil
}

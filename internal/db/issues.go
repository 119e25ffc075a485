package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// validIssueUpdateFields is the set of issue columns UpdateIssue may change.
var validIssueUpdateFields = map[string]bool{
	"title":       true,
	"description": true,
	"status":      true,
	"position":    true,
}

// IssueFilter selects issues for ListIssues. Zero values match everything.
type IssueFilter struct {
	ProjectID int
	Statuses  []model.Status
}

func issueFromRecord(r Record) (*model.Issue, error) {
	issue := &model.Issue{
		ID:          r.Int("id"),
		ProjectID:   r.Int("project_id"),
		Title:       r.String("title"),
		Description: r.String("description"),
		Status:      model.Status(r.String("status")),
		Position:    r.Int64("position"),
		CreatedBy:   r.String("created_by"),
	}
	var err error
	if issue.CreatedAt, err = r.Time("created_at"); err != nil {
		return nil, err
	}
	if issue.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return nil, err
	}
	return issue, nil
}

func issuesFromRecords(recs []Record) ([]*model.Issue, error) {
	issues := make([]*model.Issue, 0, len(recs))
	for _, r := range recs {
		issue, err := issueFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding issue %d: %w", r.Int("id"), err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// CreateIssue inserts a new issue at the position already set on it and
// records a "created" activity entry in the same transaction.
func CreateIssue(ctx context.Context, gw Gateway, issue *model.Issue) (*model.Issue, error) {
	var created *model.Issue
	err := gw.InTx(ctx, func(tx Gateway) error {
		now := nowString()
		rec, err := tx.Insert(ctx, EntityIssue, Record{
			"project_id":  issue.ProjectID,
			"title":       issue.Title,
			"description": issue.Description,
			"status":      string(issue.Status),
			"position":    issue.Position,
			"created_by":  issue.CreatedBy,
			"created_at":  now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if created, err = issueFromRecord(rec); err != nil {
			return err
		}
		return RecordActivity(ctx, tx, created.ID, "created", "", string(created.Status), issue.CreatedBy)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// InsertIssueWithID inserts an issue preserving its ID and timestamps. Used by import.
func InsertIssueWithID(ctx context.Context, gw Gateway, issue *model.Issue) error {
	_, err := gw.Insert(ctx, EntityIssue, Record{
		"id":          issue.ID,
		"project_id":  issue.ProjectID,
		"title":       issue.Title,
		"description": issue.Description,
		"status":      string(issue.Status),
		"position":    issue.Position,
		"created_by":  issue.CreatedBy,
		"created_at":  formatTime(issue.CreatedAt),
		"updated_at":  formatTime(issue.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("importing issue %s: %w", model.FormatID(issue.ID), err)
	}
	return nil
}

// GetIssue retrieves an issue by ID.
func GetIssue(ctx context.Context, gw Gateway, id int) (*model.Issue, error) {
	rec, err := gw.Get(ctx, EntityIssue, id)
	if err != nil {
		return nil, err
	}
	return issueFromRecord(rec)
}

// ListIssues returns issues matching f, ordered by position and then ID.
func ListIssues(ctx context.Context, gw Gateway, f IssueFilter) ([]*model.Issue, error) {
	var filters []Filter
	if f.ProjectID != 0 {
		filters = append(filters, Eq("project_id", f.ProjectID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		filters = append(filters, In("status", statuses))
	}
	recs, err := gw.List(ctx, EntityIssue, filters, []Sort{Asc("position")})
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	return issuesFromRecords(recs)
}

// ListAllIssues returns every issue ordered by ID.
func ListAllIssues(ctx context.Context, gw Gateway) ([]*model.Issue, error) {
	recs, err := gw.List(ctx, EntityIssue, nil, []Sort{Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	return issuesFromRecords(recs)
}

// ColumnPositions returns the positions currently used in one board column.
func ColumnPositions(ctx context.Context, gw Gateway, projectID int, status model.Status) ([]int64, error) {
	issues, err := ListIssues(ctx, gw, IssueFilter{ProjectID: projectID, Statuses: []model.Status{status}})
	if err != nil {
		return nil, err
	}
	positions := make([]int64, len(issues))
	for i, issue := range issues {
		positions[i] = issue.Position
	}
	return positions, nil
}

// UpdateIssue updates an existing issue. Only keys present in the updates map
// are modified. The updated_at timestamp is always set to the current time.
// Activity is recorded for each changed field within the same transaction.
//
// Field names are validated against validIssueUpdateFields, but callers are
// responsible for validating field values before calling this function.
func UpdateIssue(ctx context.Context, gw Gateway, id int, updates map[string]any, changedBy string) (*model.Issue, error) {
	fields := make([]string, 0, len(updates))
	for field := range updates {
		if !validIssueUpdateFields[field] {
			return nil, fmt.Errorf("invalid update field %q", field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var updated *model.Issue
	err := gw.InTx(ctx, func(tx Gateway) error {
		old, err := GetIssue(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			updated = old
			return nil
		}

		rec := Record{"updated_at": nowString()}
		for _, f := range fields {
			rec[f] = updates[f]
		}
		newRec, err := tx.Update(ctx, EntityIssue, id, rec)
		if err != nil {
			return err
		}
		if updated, err = issueFromRecord(newRec); err != nil {
			return err
		}

		for _, f := range fields {
			oldVal := issueFieldValue(old, f)
			newVal := issueFieldValue(updated, f)
			if oldVal != newVal {
				if err := RecordActivity(ctx, tx, id, f, oldVal, newVal, changedBy); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func issueFieldValue(issue *model.Issue, field string) string {
	switch field {
	case "title":
		return issue.Title
	case "description":
		return issue.Description
	case "status":
		return string(issue.Status)
	case "position":
		return fmt.Sprintf("%d", issue.Position)
	default:
		return ""
	}
}

// SetPlacement writes an issue's column and position without recording
// activity; board commits log moves themselves.
func SetPlacement(ctx context.Context, gw Gateway, id int, status model.Status, position int64) error {
	_, err := gw.Update(ctx, EntityIssue, id, Record{
		"status":     string(status),
		"position":   position,
		"updated_at": nowString(),
	})
	if err != nil {
		return fmt.Errorf("placing issue %s: %w", model.FormatID(id), err)
	}
	return nil
}

// DeleteIssue removes an issue. Comments and activity cascade.
func DeleteIssue(ctx context.Context, gw Gateway, id int) error {
	return gw.Delete(ctx, EntityIssue, id)
}

// CountByStatus returns the number of issues per column of a project. Every
// column appears in the result, zero counts included.
func CountByStatus(ctx context.Context, gw Gateway, projectID int) (map[model.Status]int, error) {
	issues, err := ListIssues(ctx, gw, IssueFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	counts := make(map[model.Status]int, 3)
	for _, s := range model.Statuses() {
		counts[s] = 0
	}
	for _, issue := range issues {
		counts[issue.Status]++
	}
	return counts, nil
}

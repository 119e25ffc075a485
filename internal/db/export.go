package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// ImportMode controls how Import treats existing data.
type ImportMode int

const (
	// ImportEmpty refuses to import into a database that already has projects or teams.
	ImportEmpty ImportMode = iota
	// ImportMerge skips records whose ID already exists.
	ImportMerge
	// ImportReplace clears all data first.
	ImportReplace
)

// ErrNotEmpty is returned by Import in ImportEmpty mode when data exists.
var ErrNotEmpty = errors.New("database is not empty")

// ImportResult counts what Import wrote and skipped.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Export snapshots every team, membership, project, issue and comment.
func Export(ctx context.Context, gw Gateway) (*model.ExportData, error) {
	teams, err := ListAllTeams(ctx, gw)
	if err != nil {
		return nil, err
	}
	members, err := ListAllMembers(ctx, gw)
	if err != nil {
		return nil, err
	}
	projects, err := ListAllProjects(ctx, gw)
	if err != nil {
		return nil, err
	}
	issues, err := ListAllIssues(ctx, gw)
	if err != nil {
		return nil, err
	}
	comments, err := ListAllComments(ctx, gw)
	if err != nil {
		return nil, err
	}

	return &model.ExportData{
		Version:    model.ExportVersion,
		ExportedAt: formatTime(time.Now()),
		Teams:      teams,
		Members:    members,
		Projects:   projects,
		Issues:     issues,
		Comments:   comments,
	}, nil
}

// IsEmpty reports whether the database holds no teams and no projects.
func IsEmpty(ctx context.Context, gw Gateway) (bool, error) {
	teams, err := gw.List(ctx, EntityTeam, nil, nil)
	if err != nil {
		return false, err
	}
	projects, err := gw.List(ctx, EntityProject, nil, nil)
	if err != nil {
		return false, err
	}
	return len(teams) == 0 && len(projects) == 0, nil
}

// ClearAllData deletes every team and project; everything else cascades.
func ClearAllData(ctx context.Context, gw Gateway) error {
	return gw.InTx(ctx, func(tx Gateway) error {
		for _, e := range []Entity{EntityProject, EntityTeam} {
			recs, err := tx.List(ctx, e, nil, nil)
			if err != nil {
				return err
			}
			for _, r := range recs {
				if err := tx.Delete(ctx, e, r.Int("id")); err != nil {
					return fmt.Errorf("clearing %s %d: %w", e, r.Int("id"), err)
				}
			}
		}
		return nil
	})
}

// Import writes an export into the store in one transaction, preserving IDs.
// Callers should run data.Validate first.
func Import(ctx context.Context, s *Store, data *model.ExportData, mode ImportMode) (ImportResult, error) {
	var res ImportResult
	err := s.InTx(ctx, func(tx Gateway) error {
		switch mode {
		case ImportReplace:
			if err := ClearAllData(ctx, tx); err != nil {
				return err
			}
		case ImportEmpty:
			empty, err := IsEmpty(ctx, tx)
			if err != nil {
				return err
			}
			if !empty {
				return ErrNotEmpty
			}
		}

		// exists reports whether a merge should skip the record.
		exists := func(e Entity, id int) (bool, error) {
			if mode != ImportMerge {
				return false, nil
			}
			_, err := tx.Get(ctx, e, id)
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		}

		step := func(e Entity, id int, insert func() error) error {
			skip, err := exists(e, id)
			if err != nil {
				return err
			}
			if skip {
				res.Skipped++
				return nil
			}
			if err := insert(); err != nil {
				return err
			}
			res.Imported++
			return nil
		}

		for _, t := range data.Teams {
			if err := step(EntityTeam, t.ID, func() error {
				_, err := InsertTeam(ctx, tx, t)
				return err
			}); err != nil {
				return err
			}
		}
		for _, m := range data.Members {
			if err := step(EntityMember, m.ID, func() error {
				_, err := InsertMember(ctx, tx, m)
				return err
			}); err != nil {
				return err
			}
		}
		for _, p := range data.Projects {
			if err := step(EntityProject, p.ID, func() error {
				return InsertProjectWithID(ctx, tx, p)
			}); err != nil {
				return err
			}
		}
		for _, issue := range data.Issues {
			if err := step(EntityIssue, issue.ID, func() error {
				return InsertIssueWithID(ctx, tx, issue)
			}); err != nil {
				return err
			}
		}
		for _, c := range data.Comments {
			if err := step(EntityComment, c.ID, func() error {
				return InsertCommentWithID(ctx, tx, c)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	if err := s.ResetSequences(ctx); err != nil {
		return res, err
	}
	return res, nil
}

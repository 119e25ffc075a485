package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// CurrentProjectKey is the meta key holding the project selected by
// "project use".
const CurrentProjectKey = "current_project"

func projectFromRecord(r Record) (*model.Project, error) {
	p := &model.Project{
		ID:          r.Int("id"),
		Name:        r.String("name"),
		Description: r.String("description"),
		Owner:       r.String("owner"),
		TeamID:      r.IntPtr("team_id"),
	}
	var err error
	if p.CreatedAt, err = r.Time("created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = r.Time("updated_at"); err != nil {
		return nil, err
	}
	return p, nil
}

func projectsFromRecords(recs []Record) ([]*model.Project, error) {
	out := make([]*model.Project, 0, len(recs))
	for _, r := range recs {
		p, err := projectFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding project %d: %w", r.Int("id"), err)
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateProject inserts a project. Team-owned projects carry no user owner.
func CreateProject(ctx context.Context, gw Gateway, p *model.Project) (*model.Project, error) {
	now := nowString()
	owner := p.Owner
	if p.TeamID != nil {
		owner = ""
	}
	rec, err := gw.Insert(ctx, EntityProject, Record{
		"name":        p.Name,
		"description": p.Description,
		"owner":       owner,
		"team_id":     nullIfNil(p.TeamID),
		"created_at":  now,
		"updated_at":  now,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	return projectFromRecord(rec)
}

// InsertProjectWithID inserts a project preserving its ID. Used by import.
func InsertProjectWithID(ctx context.Context, gw Gateway, p *model.Project) error {
	_, err := gw.Insert(ctx, EntityProject, Record{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"owner":       p.Owner,
		"team_id":     nullIfNil(p.TeamID),
		"created_at":  formatTime(p.CreatedAt),
		"updated_at":  formatTime(p.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("importing project %d: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func GetProject(ctx context.Context, gw Gateway, id int) (*model.Project, error) {
	rec, err := gw.Get(ctx, EntityProject, id)
	if err != nil {
		return nil, err
	}
	return projectFromRecord(rec)
}

// ListVisibleProjects returns the projects owned by user plus those owned by
// any of teamIDs, newest first.
func ListVisibleProjects(ctx context.Context, gw Gateway, user string, teamIDs []int) ([]*model.Project, error) {
	owned, err := gw.List(ctx, EntityProject,
		[]Filter{Eq("owner", user), IsNull("team_id")},
		[]Sort{Desc("created_at")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	shared, err := gw.List(ctx, EntityProject,
		[]Filter{In("team_id", teamIDs)},
		[]Sort{Desc("created_at")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying team projects: %w", err)
	}

	projects, err := projectsFromRecords(append(owned, shared...))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID > projects[j].ID
	})
	return projects, nil
}

// ListTeamProjects returns the projects owned by a team, newest first.
func ListTeamProjects(ctx context.Context, gw Gateway, teamID int) ([]*model.Project, error) {
	recs, err := gw.List(ctx, EntityProject,
		[]Filter{Eq("team_id", teamID)},
		[]Sort{Desc("created_at"), Desc("id")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying team projects: %w", err)
	}
	return projectsFromRecords(recs)
}

// ListAllProjects returns every project ordered by ID.
func ListAllProjects(ctx context.Context, gw Gateway) ([]*model.Project, error) {
	recs, err := gw.List(ctx, EntityProject, nil, []Sort{Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projectsFromRecords(recs)
}

// UpdateProject changes a project's name and/or description. Keys other than
// "name" and "description" are rejected.
func UpdateProject(ctx context.Context, gw Gateway, id int, updates map[string]any) (*model.Project, error) {
	rec := Record{"updated_at": nowString()}
	for k, v := range updates {
		if k != "name" && k != "description" {
			return nil, fmt.Errorf("invalid update field %q", k)
		}
		rec[k] = v
	}
	out, err := gw.Update(ctx, EntityProject, id, rec)
	if err != nil {
		return nil, err
	}
	return projectFromRecord(out)
}

// DeleteProject removes a project and, through cascades, its issues.
func DeleteProject(ctx context.Context, gw Gateway, id int) error {
	return gw.Delete(ctx, EntityProject, id)
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func populate(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	team := mustTeam(t, s, "core", "alice")
	personal := mustProject(t, s, "alice")
	shared, err := CreateProject(ctx, s, &model.Project{Name: "shared", TeamID: &team.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	issues := seedIssues(t, s, personal.ID,
		model.Issue{Title: "one", Position: 1000},
		model.Issue{Title: "two", Position: 1000, Status: model.StatusDoing},
	)
	seedIssues(t, s, shared.ID, model.Issue{Title: "three", Position: 1000})
	if _, err := CreateComment(ctx, s, &model.Comment{IssueID: issues[0].ID, Body: "note", Author: "alice"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := mustInit(t)
	populate(t, src)
	ctx := context.Background()

	data, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(data.Teams) != 1 || len(data.Members) != 1 || len(data.Projects) != 2 ||
		len(data.Issues) != 3 || len(data.Comments) != 1 {
		t.Fatalf("export counts: teams=%d members=%d projects=%d issues=%d comments=%d",
			len(data.Teams), len(data.Members), len(data.Projects), len(data.Issues), len(data.Comments))
	}

	// Go through JSON to exercise the wire format an export file uses.
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded model.ExportData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if errs := decoded.Validate(); len(errs) > 0 {
		t.Fatalf("Validate: %v", errs)
	}

	dst := mustInit(t)
	res, err := Import(ctx, dst, &decoded, ImportEmpty)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 8 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 8 imported", res)
	}

	issues, err := ListAllIssues(ctx, dst)
	if err != nil {
		t.Fatalf("ListAllIssues: %v", err)
	}
	for i, issue := range issues {
		want := data.Issues[i]
		if issue.ID != want.ID || issue.Title != want.Title || issue.Position != want.Position ||
			issue.Status != want.Status || !issue.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("issue %d = %+v, want %+v", i, issue, want)
		}
	}

	// New rows continue after the imported ids.
	p, err := CreateProject(ctx, dst, &model.Project{Name: "fresh", Owner: "alice"})
	if err != nil {
		t.Fatalf("CreateProject after import: %v", err)
	}
	if p.ID <= data.Projects[len(data.Projects)-1].ID {
		t.Errorf("new project id %d collides with imported ids", p.ID)
	}
}

func TestImportRefusesNonEmptyDB(t *testing.T) {
	s := mustInit(t)
	populate(t, s)
	data, err := Export(context.Background(), s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	_, err = Import(context.Background(), s, data, ImportEmpty)
	if !errors.Is(err, ErrNotEmpty) {
		t.Errorf("Import into populated db err = %v, want ErrNotEmpty", err)
	}
}

func TestImportMergeSkipsExisting(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	populate(t, s)
	data, err := Export(ctx, s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	data.Issues = append(data.Issues, &model.Issue{
		ID: 50, ProjectID: data.Projects[0].ID, Title: "imported", Status: model.StatusDone,
		Position: 1000, CreatedAt: now, UpdatedAt: now,
	})

	res, err := Import(ctx, s, data, ImportMerge)
	if err != nil {
		t.Fatalf("Import merge: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 8 {
		t.Errorf("result = %+v, want 1 imported, 8 skipped", res)
	}
	if _, err := GetIssue(ctx, s, 50); err != nil {
		t.Errorf("merged issue missing: %v", err)
	}
}

func TestImportReplaceClears(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	populate(t, s)

	now := time.Now().UTC().Truncate(time.Second)
	data := &model.ExportData{
		Version: model.ExportVersion,
		Projects: []*model.Project{
			{ID: 100, Name: "replacement", Owner: "zed", CreatedAt: now, UpdatedAt: now},
		},
		Issues: []*model.Issue{
			{ID: 100, ProjectID: 100, Title: "only", Status: model.StatusTodo, Position: 1000, CreatedAt: now, UpdatedAt: now},
		},
	}

	if _, err := Import(ctx, s, data, ImportReplace); err != nil {
		t.Fatalf("Import replace: %v", err)
	}
	projects, _ := ListAllProjects(ctx, s)
	issues, _ := ListAllIssues(ctx, s)
	teams, _ := ListAllTeams(ctx, s)
	if len(projects) != 1 || projects[0].ID != 100 {
		t.Errorf("projects after replace = %+v", projects)
	}
	if len(issues) != 1 || issues[0].Title != "only" {
		t.Errorf("issues after replace = %+v", issues)
	}
	if len(teams) != 0 {
		t.Errorf("teams survived replace: %d", len(teams))
	}
}

func TestExportValidateReportsAllProblems(t *testing.T) {
	data := &model.ExportData{
		Version:  2,
		Projects: []*model.Project{{ID: 1, Name: " "}},
		Issues:   []*model.Issue{{ID: 1, ProjectID: 9, Status: "blocked"}},
		Comments: []*model.Comment{{ID: 1, IssueID: 3}},
		Members:  []*model.TeamMember{{ID: 1, Role: "owner"}},
	}
	if errs := data.Validate(); len(errs) != 6 {
		t.Errorf("Validate returned %d errors, want 6: %v", len(errs), errs)
	}
}

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func mustOpen(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustInit opens an in-memory store with the full schema.
func mustInit(t *testing.T) *Store {
	t.Helper()
	s := mustOpen(t)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return s
}

func mustProject(t *testing.T, s *Store, owner string) *model.Project {
	t.Helper()
	p, err := CreateProject(context.Background(), s, &model.Project{Name: "board of " + owner, Owner: owner})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestOpenSetsWALMode(t *testing.T) {
	s := mustOpen(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("querying journal_mode: %v", err)
	}
	// In-memory databases may report "memory" instead of "wal" since WAL
	// requires a file. Accept both.
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestOpenSetsForeignKeys(t *testing.T) {
	s := mustOpen(t)

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("querying foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	s := mustOpen(t)

	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("querying busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestOpenSelectsDialect(t *testing.T) {
	if !isPostgresURL("postgres://u:p@localhost/taskboard") {
		t.Error("postgres:// URL not recognized")
	}
	if !isPostgresURL("postgresql://localhost/taskboard") {
		t.Error("postgresql:// URL not recognized")
	}
	if isPostgresURL("/tmp/taskboard.db") {
		t.Error("file path treated as postgres")
	}
	if d := mustOpen(t).Dialect(); d != DialectSQLite {
		t.Errorf("Dialect() = %q, want sqlite", d)
	}
}

func TestInitializeCreatesAllTables(t *testing.T) {
	s := mustInit(t)

	tables := []string{
		"meta", "teams", "team_members", "team_invitations",
		"projects", "issues", "comments", "activity_log",
	}

	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}

	v, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != currentSchemaVersion {
		t.Errorf("schema_version = %d after double init, want %d", v, currentSchemaVersion)
	}
	if !s.IsInitialized(ctx) {
		t.Error("IsInitialized() = false after Initialize")
	}
}

func TestIsInitializedFalseOnFreshDB(t *testing.T) {
	s := mustOpen(t)
	if s.IsInitialized(context.Background()) {
		t.Error("IsInitialized() = true before Initialize")
	}
}

func TestForeignKeyEnforcement(t *testing.T) {
	s := mustInit(t)

	_, err := s.Insert(context.Background(), EntityComment, Record{
		"issue_id":   999,
		"content":    "orphan",
		"created_at": nowString(),
	})
	if err == nil {
		t.Error("expected foreign key violation, got nil")
	}
}

func TestCascadeDeleteProjectRemovesIssuesAndComments(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()
	p := mustProject(t, s, "alice")

	issue, err := CreateIssue(ctx, s, &model.Issue{ProjectID: p.ID, Title: "a", Status: model.StatusTodo, Position: 1000})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if _, err := CreateComment(ctx, s, &model.Comment{IssueID: issue.ID, Body: "hi"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := DeleteProject(ctx, s, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	if _, err := GetIssue(ctx, s, issue.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetIssue after project delete: err = %v, want ErrNotFound", err)
	}
	comments, err := ListComments(ctx, s, issue.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("expected comments to cascade, got %d", len(comments))
	}
}

func TestMigrateNoOpAtLatestVersion(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	v, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != currentSchemaVersion {
		t.Errorf("schema_version = %d after Migrate, want %d", v, currentSchemaVersion)
	}
}

func TestMigrateFromV1ToV2(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	// Version 1 had personal projects only.
	v1DDL := `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);
CREATE TABLE projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE issues (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'todo',
	position    BIGINT NOT NULL,
	created_by  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
INSERT INTO meta (key, value) VALUES ('schema_version', '1');
INSERT INTO projects (name, owner, created_at, updated_at) VALUES ('legacy', 'alice', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z');
`
	if err := execScript(ctx, s.db, v1DDL); err != nil {
		t.Fatalf("creating v1 schema: %v", err)
	}

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	v, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 2 {
		t.Errorf("schema_version = %d, want 2", v)
	}

	legacy, err := GetProject(ctx, s, 1)
	if err != nil {
		t.Fatalf("GetProject after migrate: %v", err)
	}
	if legacy.TeamID != nil {
		t.Errorf("legacy project TeamID = %v, want nil", *legacy.TeamID)
	}

	now := time.Now()
	team, err := InsertTeam(ctx, s, &model.Team{Name: "core", CreatedBy: "alice", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("InsertTeam after migrate: %v", err)
	}
	if _, err := CreateProject(ctx, s, &model.Project{Name: "shared", TeamID: &team.ID}); err != nil {
		t.Fatalf("CreateProject with team after migrate: %v", err)
	}
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()

	if err := s.SetMeta(ctx, "schema_version", "99"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.Migrate(ctx); err == nil {
		t.Error("expected error migrating from a newer schema")
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := mustInit(t)
	ctx := context.Background()

	if _, err := s.GetMeta(ctx, CurrentProjectKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetMeta(missing) err = %v, want ErrNotFound", err)
	}
	if err := s.SetMeta(ctx, CurrentProjectKey, "3"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.SetMeta(ctx, CurrentProjectKey, "4"); err != nil {
		t.Fatalf("SetMeta overwrite: %v", err)
	}
	got, err := s.GetMeta(ctx, CurrentProjectKey)
	if err != nil || got != "4" {
		t.Errorf("GetMeta = %q, %v; want 4", got, err)
	}
	if err := s.DeleteMeta(ctx, CurrentProjectKey); err != nil {
		t.Fatalf("DeleteMeta: %v", err)
	}
	if _, err := s.GetMeta(ctx, CurrentProjectKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeta after delete err = %v, want ErrNotFound", err)
	}
}

func TestResetSequencesNoopOnSQLite(t *testing.T) {
	if err := mustInit(t).ResetSequences(context.Background()); err != nil {
		t.Errorf("ResetSequences on sqlite: %v", err)
	}
}

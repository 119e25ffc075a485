package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const currentSchemaVersion = 2

// Schema statements use two tokens that are expanded per dialect:
// {{pk}} for an auto-incrementing primary key and {{ref}} for a foreign key
// column type.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS teams (
	id          {{pk}},
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_by  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_members (
	id         {{pk}},
	team_id    {{ref}} NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	user_name  TEXT NOT NULL,
	role       TEXT NOT NULL,
	invited_by TEXT NOT NULL DEFAULT '',
	joined_at  TEXT NOT NULL,
	UNIQUE(team_id, user_name)
);

CREATE TABLE IF NOT EXISTS team_invitations (
	id          {{pk}},
	team_id     {{ref}} NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	email       TEXT NOT NULL,
	role        TEXT NOT NULL,
	invited_by  TEXT NOT NULL,
	token_hash  TEXT NOT NULL UNIQUE,
	expires_at  TEXT NOT NULL,
	accepted_at TEXT,
	accepted_by TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id          {{pk}},
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner       TEXT NOT NULL DEFAULT '',
	team_id     {{ref}} REFERENCES teams(id) ON DELETE CASCADE,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id          {{pk}},
	project_id  {{ref}} NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'todo',
	position    BIGINT NOT NULL,
	created_by  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id         {{pk}},
	issue_id   {{ref}} NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	body       TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_log (
	id            {{pk}},
	issue_id      {{ref}} NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	field_changed TEXT NOT NULL,
	old_value     TEXT,
	new_value     TEXT,
	changed_by    TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_board ON issues(project_id, status, position);
CREATE INDEX IF NOT EXISTS idx_comments_issue_id ON comments(issue_id);
CREATE INDEX IF NOT EXISTS idx_activity_issue_id ON activity_log(issue_id);
CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner);
CREATE INDEX IF NOT EXISTS idx_projects_team_id ON projects(team_id);
CREATE INDEX IF NOT EXISTS idx_team_members_user ON team_members(user_name);
CREATE INDEX IF NOT EXISTS idx_team_invitations_team_id ON team_invitations(team_id);
`

// ddl expands the dialect tokens in a schema fragment.
func (s *Store) ddl(src string) string {
	r := strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
	)
	if s.dialect == DialectPostgres {
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ref}}", "BIGINT",
		)
	}
	return r.Replace(src)
}

// execScript runs a multi-statement script one statement at a time; the pgx
// extended protocol rejects multiple statements in a single Exec.
func execScript(ctx context.Context, q querier, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Initialize creates all tables if they don't exist and sets the schema version.
func (s *Store) Initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execScript(ctx, tx, s.ddl(schemaDDL)); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	// Set schema version only if not already set.
	q, _, _ := s.bind(`INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT (key) DO NOTHING`, nil)
	if _, err := tx.ExecContext(ctx, q, strconv.Itoa(currentSchemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the current schema version from the meta table.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	val, err := s.GetMeta(ctx, "schema_version")
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", val, err)
	}

	return v, nil
}

// migrations is a list of migration functions keyed by the version they migrate TO.
// For example, migrations[2] migrates from version 1 to version 2.
var migrations = map[int]func(ctx context.Context, s *Store, tx *sql.Tx) error{
	// Version 2 introduced teams: membership, invitations and team-owned projects.
	2: func(ctx context.Context, s *Store, tx *sql.Tx) error {
		if err := execScript(ctx, tx, s.ddl(teamTablesDDL)); err != nil {
			return err
		}
		return execScript(ctx, tx, s.ddl(`
ALTER TABLE projects ADD COLUMN team_id {{ref}} REFERENCES teams(id) ON DELETE CASCADE;
CREATE INDEX IF NOT EXISTS idx_projects_team_id ON projects(team_id);
`))
	},
}

// teamTablesDDL is the subset of schemaDDL added by migration 2.
var teamTablesDDL = func() string {
	start := strings.Index(schemaDDL, "CREATE TABLE IF NOT EXISTS teams")
	end := strings.Index(schemaDDL, "CREATE TABLE IF NOT EXISTS projects")
	return schemaDDL[start:end] + `
CREATE INDEX IF NOT EXISTS idx_team_members_user ON team_members(user_name);
CREATE INDEX IF NOT EXISTS idx_team_invitations_team_id ON team_invitations(team_id);
`
}()

// Migrate checks the current schema version and applies any pending migrations
// sequentially. It is a no-op when already at the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		migrateFn, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		if err := s.applyMigration(ctx, v, migrateFn); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, v int, fn func(context.Context, *Store, *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %d transaction: %w", v, err)
	}
	defer tx.Rollback()

	if err := fn(ctx, s, tx); err != nil {
		return fmt.Errorf("applying migration %d: %w", v, err)
	}

	q, _, _ := s.bind(`UPDATE meta SET value = ? WHERE key = 'schema_version'`, nil)
	if _, err := tx.ExecContext(ctx, q, strconv.Itoa(v)); err != nil {
		return fmt.Errorf("updating schema version to %d: %w", v, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", v, err)
	}
	s.log.Info("applied migration", "version", v)
	return nil
}

// IsInitialized reports whether the meta table exists and carries a schema
// version.
func (s *Store) IsInitialized(ctx context.Context) bool {
	_, err := s.SchemaVersion(ctx)
	return err == nil
}

// GetMeta reads a key from the meta table. A missing key yields ErrNotFound.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	q, args, _ := s.bind(`SELECT value FROM meta WHERE key = ?`, []any{key})
	var val sql.NullString
	err := s.q.QueryRowContext(ctx, q, args...).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val.String, nil
}

// SetMeta upserts a key in the meta table.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	q, args, _ := s.bind(
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		[]any{key, value},
	)
	if _, err := s.q.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("setting meta %q: %w", key, err)
	}
	return nil
}

// DeleteMeta removes a key from the meta table. Missing keys are ignored.
func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	q, args, _ := s.bind(`DELETE FROM meta WHERE key = ?`, []any{key})
	if _, err := s.q.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("deleting meta %q: %w", key, err)
	}
	return nil
}

// ResetSequences realigns PostgreSQL id sequences after rows were inserted
// with explicit ids (import). SQLite needs nothing.
func (s *Store) ResetSequences(ctx context.Context) error {
	if s.dialect != DialectPostgres {
		return nil
	}
	for _, t := range tables {
		q := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			t.name,
		)
		if _, err := s.q.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("resetting %s sequence: %w", t.name, err)
		}
	}
	return nil
}

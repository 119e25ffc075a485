package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Entity names a record collection exposed by the gateway.
type Entity string

const (
	EntityProject    Entity = "project"
	EntityIssue      Entity = "issue"
	EntityComment    Entity = "comment"
	EntityTeam       Entity = "team"
	EntityMember     Entity = "team_member"
	EntityInvitation Entity = "team_invitation"
	EntityActivity   Entity = "activity"
)

// table describes the SQL table behind an entity.
// WARNING: column names are interpolated into SQL. Only add names that exactly
// match the schema.
type table struct {
	name    string
	columns map[string]bool
}

func columnSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var tables = map[Entity]table{
	EntityProject: {"projects", columnSet(
		"id", "name", "description", "owner", "team_id", "created_at", "updated_at")},
	EntityIssue: {"issues", columnSet(
		"id", "project_id", "title", "description", "status", "position",
		"created_by", "created_at", "updated_at")},
	EntityComment: {"comments", columnSet(
		"id", "issue_id", "body", "author", "created_at")},
	EntityTeam: {"teams", columnSet(
		"id", "name", "description", "created_by", "created_at", "updated_at")},
	EntityMember: {"team_members", columnSet(
		"id", "team_id", "user_name", "role", "invited_by", "joined_at")},
	EntityInvitation: {"team_invitations", columnSet(
		"id", "team_id", "email", "role", "invited_by", "token_hash",
		"expires_at", "accepted_at", "accepted_by", "created_at")},
	EntityActivity: {"activity_log", columnSet(
		"id", "issue_id", "field_changed", "old_value", "new_value", "changed_by", "created_at")},
}

func lookup(e Entity) (table, error) {
	t, ok := tables[e]
	if !ok {
		return table{}, fmt.Errorf("unknown entity %q", e)
	}
	return t, nil
}

func (t table) check(col string) error {
	if !t.columns[col] {
		return fmt.Errorf("unknown column %q on %s", col, t.name)
	}
	return nil
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq      Op = "="
	OpLt      Op = "<"
	OpLte     Op = "<="
	OpGt      Op = ">"
	OpGte     Op = ">="
	OpIn      Op = "IN"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Filter restricts a query to rows whose column satisfies Op against Value.
// Value is ignored for OpIsNull and OpNotNull and must be a slice for OpIn.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(col string, v any) Filter  { return Filter{col, OpEq, v} }
func Lt(col string, v any) Filter  { return Filter{col, OpLt, v} }
func Lte(col string, v any) Filter { return Filter{col, OpLte, v} }
func Gt(col string, v any) Filter  { return Filter{col, OpGt, v} }
func Gte(col string, v any) Filter { return Filter{col, OpGte, v} }
func IsNull(col string) Filter     { return Filter{Column: col, Op: OpIsNull} }
func NotNull(col string) Filter    { return Filter{Column: col, Op: OpNotNull} }

// In matches rows whose column equals any of the given values.
func In[T any](col string, values []T) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{col, OpIn, vs}
}

// Sort orders results by a column.
type Sort struct {
	Column string
	Desc   bool
}

func Asc(col string) Sort  { return Sort{Column: col} }
func Desc(col string) Sort { return Sort{Column: col, Desc: true} }

// Gateway is generic record CRUD over the entities above. Typed access lives
// in the repository functions of this package.
type Gateway interface {
	List(ctx context.Context, e Entity, filters []Filter, sorts []Sort) ([]Record, error)
	Get(ctx context.Context, e Entity, id int) (Record, error)
	Insert(ctx context.Context, e Entity, fields Record) (Record, error)
	Update(ctx context.Context, e Entity, id int, fields Record, guards ...Filter) (Record, error)
	Delete(ctx context.Context, e Entity, id int, guards ...Filter) error
	InTx(ctx context.Context, fn func(Gateway) error) error
}

var _ Gateway = (*Store)(nil)

// whereClause renders filters as an AND-joined SQL fragment with ?
// placeholders. Slices passed to OpIn are expanded later by sqlx.In.
func whereClause(t table, filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		if err := t.check(f.Column); err != nil {
			return "", nil, err
		}
		switch f.Op {
		case OpEq, OpLt, OpLte, OpGt, OpGte:
			parts = append(parts, fmt.Sprintf("%s %s ?", f.Column, f.Op))
			args = append(args, f.Value)
		case OpIn:
			vs, ok := f.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("IN filter on %s needs a []any value", f.Column)
			}
			if len(vs) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s IN (?)", f.Column))
			args = append(args, vs)
		case OpIsNull, OpNotNull:
			parts = append(parts, fmt.Sprintf("%s %s", f.Column, f.Op))
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func orderClause(t table, sorts []Sort) (string, error) {
	parts := make([]string, 0, len(sorts)+1)
	hasID := false
	for _, s := range sorts {
		if err := t.check(s.Column); err != nil {
			return "", err
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, s.Column+" "+dir)
		if s.Column == "id" {
			hasID = true
		}
	}
	// id breaks ties so result order is deterministic.
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// sortedKeys returns the record's keys in a stable order so generated SQL is
// deterministic.
func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// bind expands IN slices and rewrites placeholders for the store's dialect.
func (s *Store) bind(query string, args []any) (string, []any, error) {
	for _, a := range args {
		if _, ok := a.([]any); ok {
			q, expanded, err := sqlx.In(query, args...)
			if err != nil {
				return "", nil, fmt.Errorf("expanding IN clause: %w", err)
			}
			query, args = q, expanded
			break
		}
	}
	if s.dialect == DialectPostgres {
		query = sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query, args, nil
}

func (s *Store) query(ctx context.Context, query string, args []any) ([]Record, error) {
	query, args, err := s.bind(query, args)
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "query", "sql", query, "args", args)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// List returns every record of e matching all filters, ordered by sorts.
func (s *Store) List(ctx context.Context, e Entity, filters []Filter, sorts []Sort) ([]Record, error) {
	t, err := lookup(e)
	if err != nil {
		return nil, err
	}
	where, args, err := whereClause(t, filters)
	if err != nil {
		return nil, err
	}
	order, err := orderClause(t, sorts)
	if err != nil {
		return nil, err
	}
	recs, err := s.query(ctx, "SELECT * FROM "+t.name+where+order, args)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.name, err)
	}
	return recs, nil
}

// Get returns the record of e with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, e Entity, id int) (Record, error) {
	t, err := lookup(e)
	if err != nil {
		return nil, err
	}
	recs, err := s.query(ctx, "SELECT * FROM "+t.name+" WHERE id = ?", []any{id})
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", e, id, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Insert creates a record and returns it as stored, generated id included.
func (s *Store) Insert(ctx context.Context, e Entity, fields Record) (Record, error) {
	t, err := lookup(e)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("inserting %s: no fields", e)
	}

	keys := sortedKeys(fields)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if err := t.check(k); err != nil {
			return nil, err
		}
		args = append(args, fields[k])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		t.name, strings.Join(keys, ", "), placeholders(len(keys)))
	recs, err := s.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("inserting %s: %w", e, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("inserting %s: no row returned", e)
	}
	return recs[0], nil
}

// Update sets fields on the record with the given id. Guards are extra
// conditions the row must satisfy; when the row exists but a guard does not
// hold, ErrConflict is returned and nothing is written.
func (s *Store) Update(ctx context.Context, e Entity, id int, fields Record, guards ...Filter) (Record, error) {
	t, err := lookup(e)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return s.Get(ctx, e, id)
	}

	keys := sortedKeys(fields)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		if k == "id" {
			return nil, fmt.Errorf("updating %s: id is immutable", e)
		}
		if err := t.check(k); err != nil {
			return nil, err
		}
		sets = append(sets, k+" = ?")
		args = append(args, fields[k])
	}

	where, whereArgs, err := whereClause(t, append([]Filter{Eq("id", id)}, guards...))
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", t.name, strings.Join(sets, ", "), where)
	recs, err := s.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("updating %s %d: %w", e, id, err)
	}
	if len(recs) == 0 {
		return nil, s.missOrConflict(ctx, e, id, len(guards) > 0)
	}
	return recs[0], nil
}

// Delete removes the record with the given id, subject to guards.
func (s *Store) Delete(ctx context.Context, e Entity, id int, guards ...Filter) error {
	t, err := lookup(e)
	if err != nil {
		return err
	}
	where, args, err := whereClause(t, append([]Filter{Eq("id", id)}, guards...))
	if err != nil {
		return err
	}
	query, args, err := s.bind("DELETE FROM "+t.name+where, args)
	if err != nil {
		return err
	}
	s.log.DebugContext(ctx, "exec", "sql", query, "args", args)

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", e, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return s.missOrConflict(ctx, e, id, len(guards) > 0)
	}
	return nil
}

func (s *Store) missOrConflict(ctx context.Context, e Entity, id int, guarded bool) error {
	if !guarded {
		return ErrNotFound
	}
	if _, err := s.Get(ctx, e, id); err != nil {
		return err
	}
	return ErrConflict
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise. Nested calls join the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(Gateway) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &Store{q: tx, dialect: s.dialect, inTx: true, log: s.log}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = normalize(vals[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a guarded write matched an existing record
// whose state no longer satisfies the guard.
var ErrConflict = errors.New("record changed concurrently")

// Dialect identifies the SQL backend behind a Store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// querier abstracts *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQL implementation of Gateway. A Store returned by Open owns
// the connection pool; the Store handed to an InTx callback is bound to the
// transaction and must not be retained after the callback returns.
type Store struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
	log     *slog.Logger
}

// Open opens the database named by dsn. A postgres:// or postgresql:// URL
// selects PostgreSQL through pgx; anything else is treated as a SQLite path
// (":memory:" included).
func Open(dsn string) (*Store, error) {
	if isPostgresURL(dsn) {
		return openPostgres(dsn)
	}
	return openSQLite(dsn)
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openSQLite(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite is single-writer; one connection also keeps ":memory:" databases
	// alive for the lifetime of the pool.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return newStore(conn, DialectSQLite), nil
}

func openPostgres(url string) (*Store, error) {
	conn, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return newStore(conn, DialectPostgres), nil
}

func newStore(conn *sql.DB, d Dialect) *Store {
	return &Store{
		db:      conn,
		q:       conn,
		dialect: d,
		log:     slog.Default().With("component", "db", "dialect", string(d)),
	}
}

// Dialect reports which SQL backend the store talks to.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

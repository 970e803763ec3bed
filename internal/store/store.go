package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres driver for hosted deployments.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to dsn and migrates the schema. A postgres:// or
// postgresql:// URL selects Postgres; anything else is a SQLite path or
// SQLite URI.
func Open(dsn string) (*Store, error) {
	driver, d := "sqlite", dialect.SQLite
	if IsPostgresDSN(dsn) {
		driver, d = "postgres", dialect.Postgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialect.SQLite {
		// One connection keeps pragmas and in-memory databases consistent.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := migrate(context.Background(), db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

// IsPostgresDSN reports whether dsn addresses a Postgres server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TestRepo returns a TestRepo backed by this store.
func (s *Store) TestRepo() TestRepo {
	return &testRepo{s}
}

// AttemptRepo returns an AttemptRepo backed by this store.
func (s *Store) AttemptRepo() AttemptRepo {
	return &attemptRepo{s}
}

// ActivityRepo returns an ActivityRepo backed by this store.
func (s *Store) ActivityRepo() ActivityRepo {
	return &activityRepo{s}
}

// SpeechRepo returns a SpeechRepo backed by this store.
func (s *Store) SpeechRepo() SpeechRepo {
	return &speechRepo{s}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s}
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return s.db.QueryContext(ctx, query, args...)
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database location in priority order:
// 1. PLACEPREP_DB environment variable (file path or postgres URL)
// 2. $XDG_DATA_HOME/placeprep/placeprep.db
// 3. ~/.local/share/placeprep/placeprep.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PLACEPREP_DB"); p != "" {
		if IsPostgresDSN(p) {
			return p, nil
		}
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "placeprep", "placeprep.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a database file path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

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
	"github.com/abhisek/quizgen/ent"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// backend pairs a database/sql driver name with the ent dialect that
// speaks to it.
type backend struct {
	sqlDriver string
	dialect   string
}

var backends = map[string]backend{
	"":             {"sqlite", dialect.SQLite},
	DriverSQLite:   {"sqlite", dialect.SQLite},
	DriverPostgres: {"pgx", dialect.Postgres},
}

// sqlitePragmas run once on the single SQLite connection.
var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
}

// Store owns the database handle and hands out repositories over it.
type Store struct {
	db     *sql.DB
	client *ent.Client
}

// Open connects to dsn with driver (DriverSQLite or DriverPostgres) and
// migrates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	be, ok := backends[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(be.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if be.dialect == dialect.SQLite {
		if err := prepareSQLite(db, dsn); err != nil {
			db.Close()
			return nil, err
		}
	}

	client := ent.NewClient(ent.Driver(entsql.OpenDB(be.dialect, db)))
	if err := client.Schema.Create(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db, client: client}, nil
}

// prepareSQLite pins the pool to one connection, since pragmas are
// per connection, and applies sqlitePragmas to it.
func prepareSQLite(db *sql.DB, dsn string) error {
	if dir := fileDir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	db.SetMaxOpenConns(1)
	for _, p := range sqlitePragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

// fileDir returns the parent directory of a plain SQLite file path, or ""
// for URI and in-memory DSNs.
func fileDir(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	return filepath.Dir(dsn)
}

func (s *Store) Client() *ent.Client { return s.client }

// DB exposes the raw handle, used by tests to inspect pragmas.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) QuizRepo() QuizRepo { return &quizRepo{client: s.client} }

func (s *Store) ResultRepo() ResultRepo { return &resultRepo{client: s.client} }

func (s *Store) EventRepo() EventRepo { return &eventRepo{client: s.client} }

// Package sqlite provides the SQLite contact point store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/sqlstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

var migrationFiles = []string{
	"migrations/001_initial.sql",
}

// DB wraps a sql.DB connection with SQLite-specific functionality.
type DB struct {
	*sqlstore.DB
	path string
}

// NewDB creates a new SQLite database connection.
// Use ":memory:" for an in-memory database.
func NewDB(path string) (*DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with single connection for writes.
	// This also keeps an in-memory database alive for the pool lifetime.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: &sqlstore.DB{DB: db}, path: path}, nil
}

// Migrate runs all pending database migrations.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := make([]string, 0, len(migrationFiles))
	for _, name := range migrationFiles {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration: %w", err)
		}
		stmts = append(stmts, string(data))
	}
	return db.DB.Migrate(ctx, stmts)
}

// Close closes the database connection with proper cleanup.
func (db *DB) Close() error {
	// Force WAL checkpoint before close (only for file-based databases)
	if db.path != ":memory:" {
		_, _ = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return db.DB.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// NewContactPointRepository creates a contact point repository on db.
func NewContactPointRepository(db *DB) *sqlstore.ContactPointRepository {
	return sqlstore.NewContactPointRepository(db.DB, sqlstore.SQLite)
}

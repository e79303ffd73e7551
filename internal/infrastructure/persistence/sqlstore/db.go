// Package sqlstore implements the contact point repository over database/sql.
// The SQLite and MySQL backends share it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/repository"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB wraps a sql.DB with context-scoped transactions.
type DB struct {
	*sql.DB
}

// sqlTx wraps sql.Tx to implement repository.Transaction
type sqlTx struct {
	*sql.Tx
}

func (tx *sqlTx) Commit() error {
	return tx.Tx.Commit()
}

func (tx *sqlTx) Rollback() error {
	return tx.Tx.Rollback()
}

// BeginTx starts a new transaction.
func (db *DB) BeginTx(ctx context.Context) (repository.Transaction, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlTx{Tx: tx}, nil
}

// WithTransaction executes a function within a transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed. A transaction already in
// ctx is reused, and the outermost call commits.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if repository.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	// Add transaction to context
	ctx = repository.NewContextWithTx(ctx, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after error %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Executor returns the transaction in ctx, or the database itself.
func (db *DB) Executor(ctx context.Context) Executor {
	if tx := repository.TxFromContext(ctx); tx != nil {
		if t, ok := tx.(*sqlTx); ok {
			return t.Tx
		}
	}
	return db.DB
}

// Migrate applies the numbered migrations above the recorded schema version.
// Every migration must insert its own row into schema_version.
func (db *DB) Migrate(ctx context.Context, migrations []string) error {
	var currentVersion int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		// Table doesn't exist yet, that's fine
		currentVersion = 0
	}

	for i, stmt := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute migration %d: %w", version, err)
		}
	}
	return nil
}

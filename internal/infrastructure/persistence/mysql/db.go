// Package mysql provides the MySQL contact point store.
package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/persistence/sqlstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

var migrationFiles = []string{
	"migrations/001_initial.sql",
}

// Config holds MySQL connection settings.
type Config struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the driver connection string.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Database
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.ParseTime = true
	mc.MultiStatements = true
	mc.Timeout = 10 * time.Second
	return mc.FormatDSN()
}

// DB wraps a sql.DB connection to MySQL.
type DB struct {
	*sqlstore.DB
}

// NewDB opens and pings a MySQL connection pool.
func NewDB(cfg Config) (*DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: &sqlstore.DB{DB: db}}, nil
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

// NewContactPointRepository creates a contact point repository on db.
func NewContactPointRepository(db *DB) *sqlstore.ContactPointRepository {
	return sqlstore.NewContactPointRepository(db.DB, sqlstore.MySQL)
}

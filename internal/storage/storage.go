// Package storage is the relational store shared by the core and addons:
// the users table filled by member registration and the tables addons
// declare in JSON schema files. Postgres and SQLite are supported.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/keshon/botport/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const usersTable = `CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	roles         TEXT NOT NULL DEFAULT '',
	joined_server TEXT NOT NULL DEFAULT ''
)`

type Store struct {
	db     *sqlx.DB
	driver string
	log    logger.Logger
}

// Open connects, pings and makes sure the users table exists.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, log: log}
	if _, err := db.ExecContext(ctx, usersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	log.Debug("Database ready", "driver", driver)
	return s, nil
}

// ensureDir creates the parent directory of a file-backed sqlite DSN.
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || filepath.Dir(path) == "." {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the pool to addons.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Driver() string { return s.driver }

// Exec runs query with `?` placeholders rebound for the driver.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

// Select scans the rows of query into dest, a pointer to a slice.
func (s *Store) Select(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

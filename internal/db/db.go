package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultMaxOpenConns bounds the shared pool.
	DefaultMaxOpenConns = 10

	// DefaultMaxIdleConns is the number of idle connections kept warm.
	DefaultMaxIdleConns = 2
)

// Options configures the shared connection pool.
type Options struct {
	// URL is the connection URI; see ParseURL.
	URL string
	// Key is an optional 64-char hex SQLCipher key (SQLite only).
	Key string

	MaxOpenConns int
	MaxIdleConns int
}

// DB is the single shared connection pool. It is created once at process
// start, passed to every component that needs the store, and closed on
// shutdown.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// NewFromSQL wraps an existing sql.DB with its dialect.
func NewFromSQL(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{sql: sqlDB, dialect: dialect}
}

// Open builds the pool for opts.URL. It does not contact the store: an
// unreachable store surfaces as errors on the first query (see Ping).
func Open(opts Options) (*DB, error) {
	target, err := ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Key != "" && target.Dialect.Name != SQLite.Name {
		return nil, fmt.Errorf("database key is only supported for sqlite, not %s", target.Dialect.Name)
	}

	dsn := target.DSN
	if target.Dialect.Name == SQLite.Name {
		memory := target.InMemory() || strings.Contains(dsn, "mode=memory")
		if !memory {
			if err := ensureParentDir(dsn); err != nil {
				return nil, err
			}
		}
		dsn, err = sqliteDSN(dsn, opts.Key, memory)
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(target.Dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", target.Dialect.Name, err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}
	if target.InMemory() {
		// Every connection to :memory: is a separate database. Pin the pool to
		// one connection that never idles out.
		maxOpen, maxIdle = 1, 1
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)

	return NewFromSQL(sqlDB, target.Dialect), nil
}

// SQL returns the underlying sql.DB for direct access when needed.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Dialect returns the store dialect.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Ping verifies the store is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.sql.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach %s database: %w", d.dialect.Name, err)
	}
	return nil
}

// Exec runs a parameterized statement written with ? placeholders.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

// Query runs a parameterized query written with ? placeholders.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

// QueryRow runs a parameterized single-row query written with ? placeholders.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

// Close releases every pooled connection.
func (d *DB) Close() error {
	if d.sql != nil {
		return d.sql.Close()
	}
	return nil
}

func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

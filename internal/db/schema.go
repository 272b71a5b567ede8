package db

import (
	"context"

	"github.com/carlofelipe-hub/coolifytest/internal/errs"
)

// The notes table is the only persisted state: an auto-incrementing id and
// required text content. Each statement is idempotent.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS notes (
    id SERIAL PRIMARY KEY,
    content TEXT NOT NULL
)`

// AUTOINCREMENT keeps ids from being reused after the highest row is deleted.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL
)`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS notes (
    id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    content LONGTEXT NOT NULL
)`

// EnsureSchema creates the notes table when it does not exist and is a no-op
// otherwise. Callers run it once at setup time, never per request.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.sql.ExecContext(ctx, d.dialect.SchemaSQL); err != nil {
		return errs.Store("failed to initialize notes schema", err)
	}
	return nil
}

package testdb

import (
	"context"
	"fmt"

	"github.com/carlofelipe-hub/coolifytest/internal/db"
)

// NewInMemory creates a private in-memory notes store with the schema applied.
func NewInMemory() (*db.DB, error) {
	store, err := db.Open(db.Options{URL: ":memory:"})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory notes database: %w", err)
	}

	if err := applyFastSQLitePragmas(store); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	if err := store.EnsureSchema(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize in-memory notes schema: %w", err)
	}
	return store, nil
}

// MustInMemory is NewInMemory for tests that cannot proceed without a store.
func MustInMemory(tb interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}) *db.DB {
	tb.Helper()
	store, err := NewInMemory()
	if err != nil {
		tb.Fatalf("testdb: %v", err)
	}
	tb.Cleanup(func() { store.Close() })
	return store
}

func applyFastSQLitePragmas(store *db.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	ctx := context.Background()
	for _, pragma := range pragmas {
		if _, err := store.Exec(ctx, pragma); err != nil {
			return err
		}
	}
	return nil
}

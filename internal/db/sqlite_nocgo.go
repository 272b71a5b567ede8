//go:build !cgo

package db

import (
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriverName is the pure-Go modernc driver, used when CGO is off.
	SQLiteDriverName = "sqlite"

	// SQLiteEncryptionSupported reports whether DATABASE_KEY can be honored.
	SQLiteEncryptionSupported = false
)

func sqliteDSN(path, key string, memory bool) (string, error) {
	if key != "" {
		return "", fmt.Errorf("DATABASE_KEY requires SQLCipher; rebuild with CGO_ENABLED=1")
	}
	params := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if !memory {
		params = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&" + params
	}
	return appendSQLiteParams(path, params), nil
}

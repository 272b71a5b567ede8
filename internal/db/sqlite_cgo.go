//go:build cgo

package db

import (
	"database/sql"
	"fmt"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver registration.
	SQLiteDriverName = "sqlite3_notes"

	// SQLiteEncryptionSupported reports whether DATABASE_KEY can be honored.
	SQLiteEncryptionSupported = true
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{})
}

// sqliteDSN appends SQLCipher/mattn connection parameters to a path.
// key, when set, is the 64-char hex SQLCipher key.
func sqliteDSN(path, key string, memory bool) (string, error) {
	params := "_busy_timeout=5000&_foreign_keys=on"
	if !memory {
		// WAL + NORMAL gives good throughput while preserving safety.
		params = "_journal_mode=WAL&_synchronous=NORMAL&" + params
	}
	if key != "" {
		params = fmt.Sprintf("_pragma_key=x'%s'&_pragma_cipher_page_size=4096&", key) + params
	}
	return appendSQLiteParams(path, params), nil
}

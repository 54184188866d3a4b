package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL CHECK (first_name <> ''),
	last_name TEXT NOT NULL CHECK (last_name <> ''),
	email TEXT NOT NULL UNIQUE CHECK (email <> ''),
	password TEXT NOT NULL CHECK (password <> ''),
	hobby TEXT NOT NULL DEFAULT '[]', -- JSON array
	created_at DATETIME NOT NULL
);
`

type DB struct {
	*sqlx.DB
}

// busyTimeoutMillis is how long a connection waits on a locked database
const busyTimeoutMillis = 5000

// dataSourceName attaches the per-connection pragmas to dbPath. Pragmas run
// through Exec would only reach one pooled connection. Read-then-write
// transactions take the write lock up front so they wait on busy_timeout
// instead of failing to upgrade.
func dataSourceName(dbPath string) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_txlock", "immediate")

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + params.Encode()
}

func New(dbPath string) (*DB, error) {
	db, err := sqlx.Connect("sqlite", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to :memory: opens a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db}, nil
}

// Ping checks that the database file is still reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	var serr *moderncsqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(serr.Error(), "UNIQUE")
}

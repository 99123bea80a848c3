package sqlite

import (
	"database/sql"
	"errors"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

var errNoFile = errors.New("no sqlite file provided")

// Connect opens a connection to the sqlite database file. Foreign keys are
// enforced and writes wait on a busy database rather than failing
func Connect(file string) (*sql.DB, error) {
	if file == "" {
		return nil, errNoFile
	}
	return sql.Open("sqlite3", "file:"+file+"?_foreign_keys=on&_busy_timeout=5000")
}

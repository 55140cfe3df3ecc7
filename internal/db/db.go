// Package db provides read-only access to an OpenCode SQLite database
// and the aggregation queries behind every usage view.
//
// The database is owned by OpenCode, not by this tool: nothing in this
// package writes to it, and no long-lived handle is kept. Every query
// opens a fresh read-only connection, runs, and closes it, so a report
// can never block or corrupt a live OpenCode session.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// DB locates an OpenCode database file. Connections are opened per
// query; the zero value is not usable, call Open.
type DB struct {
	path string
}

// NotFoundError reports that no database exists at the resolved path.
// The message names the override mechanism because the path is usually
// auto-detected rather than user-supplied.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(
		"OpenCode database not found at %s\nSet OPENCODE_DB env var to override.",
		e.Path,
	)
}

// IsNotFound reports whether err is a missing-database error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// makeDSN builds a read-only SQLite connection string. Changing the
// journal mode would need write access, so only the busy timeout is
// set; it covers checkpoints taken by a concurrently running session.
func makeDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_busy_timeout", "3000")
	return path + "?" + params.Encode()
}

// Open validates that an OpenCode database exists at path and returns a
// handle for querying it. The file itself is opened lazily, per query.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{Path: path}
	} else if err != nil {
		return nil, fmt.Errorf("checking database path: %w", err)
	}
	return &DB{path: path}, nil
}

// Path returns the database file path this handle was opened with.
func (d *DB) Path() string {
	return d.path
}

// open dials a fresh read-only connection. Callers must close it.
func (d *DB) open() (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", makeDSN(d.path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

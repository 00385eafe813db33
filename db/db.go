// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL mode at an XDG path or PostgreSQL from a DSN
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is the SQLite database location under the XDG data directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "dealdeck", "dealdeck.db")
}

func OpenDatabase(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open opens a database for the given dialect and returns a record store over it.
func Open(dialect Dialect, dsn string) (*RecordStore, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case SQLite:
		if dsn == "" {
			dsn = DefaultPath()
		}
		conn, err = OpenDatabase(dsn)
	case Postgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
		conn, err = OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	return NewRecordStore(conn, dialect), nil
}

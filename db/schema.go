// ABOUTME: Database schema definitions
// ABOUTME: Portable DDL shared by SQLite and PostgreSQL
package db

import (
	"database/sql"
	"fmt"
)

// Records are stored as JSON documents keyed by table and id. The DDL
// sticks to types both SQLite and PostgreSQL accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
	table_name TEXT NOT NULL,
	id BIGINT NOT NULL,
	data TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (table_name, id)
)`,
	`CREATE TABLE IF NOT EXISTS record_sequences (
	table_name TEXT PRIMARY KEY,
	last_id BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_records_updated ON records(table_name, updated_at)`,
}

func InitSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// ABOUTME: SQL-backed implementation of the record store
// ABOUTME: Stores records as JSON documents with per-table id sequences
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealdeck/recordstore"
)

// RecordStore implements recordstore.Store over database/sql.
type RecordStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewRecordStore(db *sql.DB, dialect Dialect) *RecordStore {
	return &RecordStore{db: db, dialect: dialect}
}

// DB exposes the underlying connection.
func (s *RecordStore) DB() *sql.DB {
	return s.db
}

func (s *RecordStore) Close() error {
	return s.db.Close()
}

func checkTable(table string) error {
	if !recordstore.IsKnownTable(table) {
		return fmt.Errorf("%w: %s", recordstore.ErrUnknownTable, table)
	}
	return nil
}

func decodeRecord(id int64, data []byte) (recordstore.Record, error) {
	r := recordstore.Record{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	r[recordstore.FieldID] = id
	return r, nil
}

func encodeRecord(r recordstore.Record) ([]byte, error) {
	body := r.Clone()
	delete(body, recordstore.FieldID)
	return json.Marshal(body)
}

func (s *RecordStore) FetchRecords(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT id, data FROM records WHERE table_name = ? ORDER BY id`), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var records []recordstore.Record
	for rows.Next() {
		var (
			id   int64
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		r, err := decodeRecord(id, data)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return q.Apply(records), nil
}

func (s *RecordStore) GetRecordByID(ctx context.Context, table string, id int64, q recordstore.Query) (recordstore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT data FROM records WHERE table_name = ? AND id = ?`), table, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recordstore.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	r, err := decodeRecord(id, data)
	if err != nil {
		return nil, err
	}
	return r.Project(q.Fields), nil
}

func (s *RecordStore) nextID(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	_, err := tx.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO record_sequences (table_name, last_id) VALUES (?, 1)
		ON CONFLICT (table_name) DO UPDATE SET last_id = record_sequences.last_id + 1
	`), table)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT last_id FROM record_sequences WHERE table_name = ?`), table).Scan(&id)
	return id, err
}

func (s *RecordStore) CreateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return recordstore.BatchResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(records))}
	for _, in := range records {
		if in == nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, "empty record"))
			continue
		}
		data, err := encodeRecord(in)
		if err != nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, err.Error()))
			continue
		}

		id, err := s.nextID(ctx, tx, table)
		if err != nil {
			return recordstore.BatchResult{}, err
		}
		_, err = tx.ExecContext(ctx, s.dialect.Rebind(`
			INSERT INTO records (table_name, id, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`), table, id, string(data), now, now)
		if err != nil {
			return recordstore.BatchResult{}, fmt.Errorf("failed to insert into %s: %w", table, err)
		}

		out := in.Clone()
		out[recordstore.FieldID] = id
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(out))
	}

	if err := tx.Commit(); err != nil {
		return recordstore.BatchResult{}, err
	}
	return result, nil
}

func (s *RecordStore) UpdateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return recordstore.BatchResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(records))}
	for _, in := range records {
		id := in.ID()
		if id <= 0 {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, "record missing Id"))
			continue
		}

		var data []byte
		err := tx.QueryRowContext(ctx,
			s.dialect.Rebind(`SELECT data FROM records WHERE table_name = ? AND id = ?`), table, id).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			result.Outcomes = append(result.Outcomes,
				recordstore.Failed(recordstore.CodeNotFound, fmt.Sprintf("record %d not found", id)))
			continue
		}
		if err != nil {
			return recordstore.BatchResult{}, err
		}

		merged, err := decodeRecord(id, data)
		if err != nil {
			return recordstore.BatchResult{}, err
		}
		for k, v := range in {
			merged[k] = v
		}
		merged[recordstore.FieldID] = id

		encoded, err := encodeRecord(merged)
		if err != nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, err.Error()))
			continue
		}
		_, err = tx.ExecContext(ctx, s.dialect.Rebind(`
			UPDATE records SET data = ?, updated_at = ? WHERE table_name = ? AND id = ?
		`), string(encoded), now, table, id)
		if err != nil {
			return recordstore.BatchResult{}, fmt.Errorf("failed to update %s: %w", table, err)
		}
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(merged))
	}

	if err := tx.Commit(); err != nil {
		return recordstore.BatchResult{}, err
	}
	return result, nil
}

func (s *RecordStore) DeleteRecords(ctx context.Context, table string, ids []int64) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(ids))}
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx,
			s.dialect.Rebind(`DELETE FROM records WHERE table_name = ? AND id = ?`), table, id)
		if err != nil {
			return result, fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return result, err
		}
		if rows == 0 {
			result.Outcomes = append(result.Outcomes,
				recordstore.Failed(recordstore.CodeNotFound, fmt.Sprintf("record %d not found", id)))
			continue
		}
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(recordstore.Record{recordstore.FieldID: id}))
	}
	return result, nil
}

// ABOUTME: Record store interface shared by every storage backend
// ABOUTME: Defines table names, the Store contract, and sentinel errors
package recordstore

import (
	"context"
	"errors"
)

// Table names used by the hosted record store.
const (
	TableContacts   = "contact_c"
	TableDeals      = "deal_c"
	TableActivities = "activity_c"
	TableStages     = "stage_c"
)

// FieldID is the system id field present on every record.
const FieldID = "Id"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownTable   = errors.New("unknown table")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Tables lists every table the application reads and writes.
func Tables() []string {
	return []string{TableStages, TableContacts, TableDeals, TableActivities}
}

// IsKnownTable reports whether name is one of Tables.
func IsKnownTable(name string) bool {
	for _, t := range Tables() {
		if t == name {
			return true
		}
	}
	return false
}

// Store is the record-level data access contract. Every backend
// (memory, SQL, Charm KV, hosted HTTP API) implements it; services only
// ever talk to this interface.
//
// Batch writes report one Outcome per input item. A non-nil error means
// the call as a whole failed; per-item failures live in the BatchResult.
type Store interface {
	FetchRecords(ctx context.Context, table string, q Query) ([]Record, error)
	GetRecordByID(ctx context.Context, table string, id int64, q Query) (Record, error)
	CreateRecords(ctx context.Context, table string, records []Record) (BatchResult, error)
	UpdateRecords(ctx context.Context, table string, records []Record) (BatchResult, error)
	DeleteRecords(ctx context.Context, table string, ids []int64) (BatchResult, error)
}

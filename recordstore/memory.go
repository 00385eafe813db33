// ABOUTME: In-process record store that owns its own table state
// ABOUTME: Used for demos, tests, and as the default backend when nothing else is configured
package recordstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memTable struct {
	rows   map[int64]Record
	lastID int64
}

// MemoryStore keeps every table in memory. Reads return copies, so callers
// can never mutate stored state by accident.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewMemoryStore creates an empty store with every known table registered.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{tables: make(map[string]*memTable)}
	for _, t := range Tables() {
		s.tables[t] = &memTable{rows: make(map[int64]Record)}
	}
	return s
}

func (s *MemoryStore) table(name string) (*memTable, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

func (s *MemoryStore) FetchRecords(ctx context.Context, table string, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(table)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]Record, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	return q.Apply(rows), nil
}

func (s *MemoryStore) GetRecordByID(ctx context.Context, table string, id int64, q Query) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(table)
	if err != nil {
		return nil, err
	}
	r, ok := t.rows[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return r.Project(q.Fields), nil
}

func (s *MemoryStore) CreateRecords(ctx context.Context, table string, records []Record) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(table)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Outcomes: make([]Outcome, 0, len(records))}
	for _, in := range records {
		if in == nil {
			result.Outcomes = append(result.Outcomes, Failed(CodeInvalid, "empty record"))
			continue
		}
		t.lastID++
		r := in.Clone()
		r[FieldID] = t.lastID
		t.rows[t.lastID] = r
		result.Outcomes = append(result.Outcomes, Succeeded(r.Clone()))
	}
	return result, nil
}

func (s *MemoryStore) UpdateRecords(ctx context.Context, table string, records []Record) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(table)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Outcomes: make([]Outcome, 0, len(records))}
	for _, in := range records {
		id := in.ID()
		if id <= 0 {
			result.Outcomes = append(result.Outcomes, Failed(CodeInvalid, "record missing Id"))
			continue
		}
		existing, ok := t.rows[id]
		if !ok {
			result.Outcomes = append(result.Outcomes, Failed(CodeNotFound, fmt.Sprintf("record %d not found", id)))
			continue
		}
		merged := existing.Clone()
		for k, v := range in.Clone() {
			merged[k] = v
		}
		merged[FieldID] = id
		t.rows[id] = merged
		result.Outcomes = append(result.Outcomes, Succeeded(merged.Clone()))
	}
	return result, nil
}

func (s *MemoryStore) DeleteRecords(ctx context.Context, table string, ids []int64) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(table)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Outcomes: make([]Outcome, 0, len(ids))}
	for _, id := range ids {
		if _, ok := t.rows[id]; !ok {
			result.Outcomes = append(result.Outcomes, Failed(CodeNotFound, fmt.Sprintf("record %d not found", id)))
			continue
		}
		delete(t.rows, id)
		result.Outcomes = append(result.Outcomes, Succeeded(Record{FieldID: id}))
	}
	return result, nil
}

// Len returns the number of rows in a table, or 0 for unknown tables.
func (s *MemoryStore) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}

// ABOUTME: Record store backed by a Charm KV client
// ABOUTME: Keeps each record as a JSON value under records/<table>/<id> with a per-table sequence

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/harperreed/dealdeck/recordstore"
)

const (
	recordPrefix   = "records/"
	sequencePrefix = "seq/"
)

// KVStore implements recordstore.Store on a Client.
type KVStore struct {
	client *Client
	// writes serializes read-modify-write cycles such as sequence bumps and merges.
	writes sync.Mutex
}

func NewKVStore(c *Client) *KVStore {
	return &KVStore{client: c}
}

func (s *KVStore) Client() *Client {
	return s.client
}

func recordKey(table string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", recordPrefix, table, id))
}

func tablePrefix(table string) []byte {
	return []byte(recordPrefix + table + "/")
}

func parseRecordKey(table string, key []byte) (int64, bool) {
	rest := strings.TrimPrefix(string(key), string(tablePrefix(table)))
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

func checkTable(table string) error {
	if !recordstore.IsKnownTable(table) {
		return fmt.Errorf("%w: %s", recordstore.ErrUnknownTable, table)
	}
	return nil
}

func (s *KVStore) load(table string, id int64) (recordstore.Record, error) {
	data, err := s.client.Get(recordKey(table, id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, recordstore.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	r := recordstore.Record{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%d: %w", table, id, err)
	}
	r[recordstore.FieldID] = id
	return r, nil
}

func (s *KVStore) save(table string, r recordstore.Record) error {
	body := r.Clone()
	delete(body, recordstore.FieldID)
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return s.client.Set(recordKey(table, r.ID()), data)
}

func (s *KVStore) nextID(table string) (int64, error) {
	key := []byte(sequencePrefix + table)
	var last int64
	data, err := s.client.Get(key)
	switch {
	case errors.Is(err, ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		last, err = strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt sequence for %s: %w", table, err)
		}
	}
	last++
	if err := s.client.Set(key, []byte(strconv.FormatInt(last, 10))); err != nil {
		return 0, err
	}
	return last, nil
}

func (s *KVStore) FetchRecords(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	keys, err := s.client.KeysWithPrefix(tablePrefix(table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		if id, ok := parseRecordKey(table, k); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]recordstore.Record, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.load(table, id)
		if errors.Is(err, recordstore.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return q.Apply(records), nil
}

func (s *KVStore) GetRecordByID(ctx context.Context, table string, id int64, q recordstore.Query) (recordstore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.load(table, id)
	if err != nil {
		return nil, err
	}
	return r.Project(q.Fields), nil
}

func (s *KVStore) CreateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(records))}
	for _, in := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if in == nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, "empty record"))
			continue
		}
		id, err := s.nextID(table)
		if err != nil {
			return result, err
		}
		r := in.Clone()
		r[recordstore.FieldID] = id
		if err := s.save(table, r); err != nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeFailed, err.Error()))
			continue
		}
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(r))
	}
	return result, nil
}

func (s *KVStore) UpdateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(records))}
	for _, in := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id := in.ID()
		if id <= 0 {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeInvalid, "record missing Id"))
			continue
		}
		merged, err := s.load(table, id)
		if errors.Is(err, recordstore.ErrRecordNotFound) {
			result.Outcomes = append(result.Outcomes,
				recordstore.Failed(recordstore.CodeNotFound, fmt.Sprintf("record %d not found", id)))
			continue
		}
		if err != nil {
			return result, err
		}
		for k, v := range in.Clone() {
			merged[k] = v
		}
		merged[recordstore.FieldID] = id
		if err := s.save(table, merged); err != nil {
			result.Outcomes = append(result.Outcomes, recordstore.Failed(recordstore.CodeFailed, err.Error()))
			continue
		}
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(merged))
	}
	return result, nil
}

func (s *KVStore) DeleteRecords(ctx context.Context, table string, ids []int64) (recordstore.BatchResult, error) {
	if err := checkTable(table); err != nil {
		return recordstore.BatchResult{}, err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	result := recordstore.BatchResult{Outcomes: make([]recordstore.Outcome, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.client.Get(recordKey(table, id)); err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				result.Outcomes = append(result.Outcomes,
					recordstore.Failed(recordstore.CodeNotFound, fmt.Sprintf("record %d not found", id)))
				continue
			}
			return result, err
		}
		if err := s.client.Delete(recordKey(table, id)); err != nil {
			return result, fmt.Errorf("failed to delete %s/%d: %w", table, id, err)
		}
		result.Outcomes = append(result.Outcomes, recordstore.Succeeded(recordstore.Record{recordstore.FieldID: id}))
	}
	return result, nil
}

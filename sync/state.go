// ABOUTME: Persisted sync state per Google service
// ABOUTME: Stores status, last sync time, and incremental sync tokens in a JSON file
package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/harperreed/dealdeck/models"
)

// StateStore reads and writes models.SyncState records keyed by service.
type StateStore struct {
	path string
	now  func() time.Time
	mu   gosync.Mutex
}

// DefaultStatePath is the sync state file under the XDG data directory.
func DefaultStatePath() string {
	return filepath.Join(DataDir(), "sync-state.json")
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path, now: time.Now}
}

func (s *StateStore) readAll() (map[string]models.SyncState, error) {
	states := map[string]models.SyncState{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return states, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to decode sync state: %w", err)
	}
	return states, nil
}

func (s *StateStore) writeAll(states map[string]models.SyncState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	return nil
}

// Get returns the state for service, or nil when it has never synced.
func (s *StateStore) Get(service string) (*models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.readAll()
	if err != nil {
		return nil, err
	}
	st, ok := states[service]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *StateStore) update(service string, fn func(*models.SyncState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.readAll()
	if err != nil {
		return err
	}
	st, ok := states[service]
	if !ok {
		st = models.SyncState{Service: service}
	}
	fn(&st)
	st.UpdatedAt = s.now()
	states[service] = st
	return s.writeAll(states)
}

// SetStatus records status and, for errors, the message.
func (s *StateStore) SetStatus(service, status, message string) error {
	return s.update(service, func(st *models.SyncState) {
		st.Status = status
		st.ErrorMessage = message
	})
}

// Complete marks a successful sync and stores the next sync token when present.
func (s *StateStore) Complete(service, token string) error {
	return s.update(service, func(st *models.SyncState) {
		now := s.now()
		st.Status = models.SyncStatusIdle
		st.ErrorMessage = ""
		st.LastSyncTime = &now
		if token != "" {
			st.LastSyncToken = token
		}
	})
}

// Reset forgets the stored state for service.
func (s *StateStore) Reset(service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.readAll()
	if err != nil {
		return err
	}
	delete(states, service)
	return s.writeAll(states)
}

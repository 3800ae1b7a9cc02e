package storage

import (
	"context"
	"sync"
)

// Record names used by the client.
const (
	RecordRecentURLs  = "recent_urls"
	RecordHistoryTabs = "history_tabs"
	RecordTheme       = "theme"
	RecordPreferences = "preferences"
)

// Store is a small key-value interface over named records. Writes are
// whole-record, last-write-wins overwrites.
// This allows the history and preference logic to run against BadgerDB
// in production and a map in tests.
type Store interface {
	// Get returns the stored bytes, or nil with no error when the record
	// does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Set overwrites the record.
	Set(ctx context.Context, name string, value []byte) error

	// Remove deletes the record. Removing a missing record is not an error.
	Remove(ctx context.Context, name string) error

	// Close gracefully shuts down the store.
	Close() error
}

// MemoryStore keeps records in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[name]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.records[name] = v
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, name)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

package backend

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a minimal in-memory backend intended for tests and examples.
// Blobs are detached through a JSON round trip so callers and storage never
// share structure.
type Memory struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	values map[string]any
	meta   Meta
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{records: map[string]memoryRecord{}}
}

// Load returns the last blob saved under name, or nil when nothing is stored.
func (m *Memory) Load(_ context.Context, name string) (map[string]any, error) {
	m.mu.RLock()
	record, ok := m.records[name]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return detach(record.values)
}

// Save stores values under name, stamping a fresh snapshot ID.
func (m *Memory) Save(_ context.Context, name string, values map[string]any) error {
	detached, err := detach(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[name] = memoryRecord{
		values: detached,
		meta: Meta{
			SnapshotID: uuid.NewString(),
			UpdatedAt:  time.Now(),
		},
	}
	m.mu.Unlock()
	return nil
}

// Meta returns the audit metadata recorded by the last save under name.
func (m *Memory) Meta(name string) (Meta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[name]
	return record.meta, ok
}

func detach(values map[string]any) (map[string]any, error) {
	if values == nil {
		return nil, nil
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	var clone map[string]any
	if err := json.Unmarshal(payload, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}

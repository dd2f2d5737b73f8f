package dal

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps records in process memory. Used by tests and by `run --memory`.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Kind]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Kind]map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, kind Kind, key Key, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	raw, ok := m.records[kind][key.String()]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *MemoryStore) Set(ctx context.Context, kind Kind, key Key, patch any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.records[kind]
	if !ok {
		byKey = make(map[string][]byte)
		m.records[kind] = byKey
	}
	merged, err := mergeJSON(byKey[key.String()], patch)
	if err != nil {
		return err
	}
	byKey[key.String()] = merged
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, kind Kind, key Key, patch any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[kind][key.String()]
	if !ok {
		return false, nil
	}
	merged, err := mergeJSON(existing, patch)
	if err != nil {
		return false, err
	}
	m.records[kind][key.String()] = merged
	return true, nil
}

func (m *MemoryStore) Delete(ctx context.Context, kind Kind, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[kind], key.String())
	return nil
}

func (m *MemoryStore) List(ctx context.Context, kind Kind, prefix Key, fn func(raw json.RawMessage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := prefix.prefix()

	m.mu.RLock()
	keys := make([]string, 0, len(m.records[kind]))
	for k := range m.records[kind] {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, 0, len(keys))
	for _, k := range keys {
		values = append(values, m.records[kind][k])
	}
	m.mu.RUnlock()

	for _, v := range values {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

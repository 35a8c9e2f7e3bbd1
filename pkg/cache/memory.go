package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process TTL cache. It is the fallback backend
// when Redis is disabled or unreachable, and safe for concurrent use.
// ⭐ SSOT: 인메모리 캐시는 여기서만
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a cached value; expired entries count as misses.
func (m *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expires) {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores a value with TTL.
func (m *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Delete removes a cached value.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
// Called periodically by the scheduler.
func (m *MemoryStore) Sweep() int {
	now := time.Now()
	removed := 0

	m.mu.Lock()
	for key, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, key)
			removed++
		}
	}
	m.mu.Unlock()
	return removed
}

// Len returns the number of live entries (expired ones included until
// the next sweep).
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

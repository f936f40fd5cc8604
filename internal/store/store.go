// package store provides the key-value storage the client keeps session state in
package store

import "sync"

// Well-known keys. The callback flow and session manager agree on these the
// same way the pages and services of the web client agreed on storage keys.
const (
	KeyToken   = "token"
	KeyUser    = "user"
	KeyPending = "pending_playlist_save"

	markerPrefix = "oauth_processed:"
)

// MarkerKey returns the idempotency-marker key for an exact callback query
// string. Markers are keyed by the raw query so two different callbacks never
// collide.
func MarkerKey(rawQuery string) string {
	return markerPrefix + rawQuery
}

// Store is a minimal key-value abstraction over client-local storage.
//
// Implementations must be safe for use from multiple goroutines.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set writes value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// MemoryStore is an in-memory [Store].
//
// Used for session-scoped state (processed-callback markers live and die with
// the process) and as the test double for the durable store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

package assets

import (
	"sync"
)

// Manager hands out one Store per client so cached lots are never shared
// between browsers. The factory decides which API backs a client's store
// (remote client or standalone repository).
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory func(clientID string) API
}

// NewManager creates a Manager with a per-client API factory.
func NewManager(factory func(clientID string) API) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		factory: factory,
	}
}

// For returns the store for a client, creating it on first use.
func (m *Manager) For(clientID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[clientID]; ok {
		return store
	}
	store := NewStore(m.factory(clientID))
	m.stores[clientID] = store
	return store
}

// ClearClient drops a client's cached store. Wired to the session-ended
// event so data does not leak across sessions.
func (m *Manager) ClearClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[clientID]; ok {
		store.Clear()
		delete(m.stores, clientID)
	}
}

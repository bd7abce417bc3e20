package conversation

import (
	"sort"
	"sync"
)

// Store keeps one Manager per conversation ID.
type Store struct {
	mu         sync.Mutex
	managers   map[string]*Manager
	newManager func() *Manager
}

// NewStore creates a store that builds managers with newManager.
func NewStore(newManager func() *Manager) *Store {
	return &Store{
		managers:   make(map[string]*Manager),
		newManager: newManager,
	}
}

// Get returns the manager of id.
func (s *Store) Get(id string) (*Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[id]
	return m, ok
}

// GetOrCreate returns the manager of id, creating an empty one if needed.
func (s *Store) GetOrCreate(id string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.managers[id]; ok {
		return m
	}
	m := s.newManager()
	s.managers[id] = m
	ActiveConversations.Inc()
	return m
}

// Delete drops the conversation. It reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.managers[id]; !ok {
		return false
	}
	delete(s.managers, id)
	ActiveConversations.Dec()
	return true
}

// IDs returns the known conversation IDs, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.managers))
	for id := range s.managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

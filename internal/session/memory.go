package session

import (
	"sync"
)

// MemoryStore keeps sessions for the process lifetime. Sessions are created
// lazily and never evicted.
type MemoryStore struct {
	items map[int64]Session
	mu    sync.RWMutex

	locks   map[int64]*sync.Mutex
	locksMu sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]Session),
		locks: make(map[int64]*sync.Mutex),
	}
}

func (s *MemoryStore) Get(conversationID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items[conversationID]
}

func (s *MemoryStore) Update(conversationID int64, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.items[conversationID]
	if err := fn(&current); err != nil {
		return err
	}
	s.items[conversationID] = current
	return nil
}

func (s *MemoryStore) Lock(conversationID int64) func() {
	s.locksMu.Lock()
	m, ok := s.locks[conversationID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[conversationID] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

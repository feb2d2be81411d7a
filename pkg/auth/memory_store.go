package auth

import (
	"sort"
	"sync"
)

// MemoryStore keeps sessions in process memory. Errors can be injected for
// tests.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func copySession(s *Session) *Session {
	c := *s
	c.Cookies = s.Cookies.Clone()
	return &c
}

func (m *MemoryStore) Store(s *Session) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if s == nil || s.Account == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Account] = copySession(s)
	return nil
}

func (m *MemoryStore) Retrieve(account string) (*Session, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if account == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

func (m *MemoryStore) List() ([]*Session, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (m *MemoryStore) Delete(account string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if account == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[account]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, account)
	return nil
}

func (m *MemoryStore) Exists(account string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[account]
	return ok
}

// Count returns the number of stored sessions
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

package credentials

import "sync"

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu    sync.RWMutex
	creds Credentials
	set   bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load() (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Credentials{}, ErrNotFound
	}
	return m.creds, nil
}

func (m *Memory) Save(creds Credentials) error {
	if creds.AccessToken == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.set = true
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.set = false
	return nil
}

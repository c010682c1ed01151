package storage

import (
	"context"
	"sync"
	"time"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu        sync.RWMutex
	values    map[string]string
	expiries  map[string]time.Time
	now       func() time.Time
	pingError error
	getError  error
	setError  error
	delError  error
	setCalls  int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		values:   make(map[string]string),
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for ttl expiry.
func (m *MockStorage) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetGetError makes every Get fail with err.
func (m *MockStorage) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// SetSetError makes every Set fail with err.
func (m *MockStorage) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError = err
}

// SetDelError makes every Del fail with err.
func (m *MockStorage) SetDelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delError = err
}

// SetCalls returns how many successful Set calls were made.
func (m *MockStorage) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setCalls
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return "", m.getError
	}
	if exp, ok := m.expiries[key]; ok && !m.now().Before(exp) {
		return "", nil
	}
	return m.values[key], nil
}

func (m *MockStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.values[key] = value
	if ttl > 0 {
		m.expiries[key] = m.now().Add(ttl)
	} else {
		delete(m.expiries, key)
	}
	m.setCalls++
	return nil
}

func (m *MockStorage) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delError != nil {
		return m.delError
	}
	delete(m.values, key)
	delete(m.expiries, key)
	return nil
}

// Keys returns the keys currently holding unexpired values.
func (m *MockStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		if exp, ok := m.expiries[k]; ok && !m.now().Before(exp) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

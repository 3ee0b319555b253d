package flow

import (
	"sync"
	"time"
)

// Store keeps conversation states keyed by user id. Set replaces the whole
// state; partial merges happen only inside the machine while it holds the
// user's lock.
type Store interface {
	Get(userID int64) (State, bool)
	Set(userID int64, st State)
	Clear(userID int64)
	StaleUsers(olderThan time.Time) []int64
}

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore returns an in-memory Store. States are values, not shared
// pointers, so readers never observe a half-written state.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[int64]State)}
}

func (m *memoryStore) Get(userID int64) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	return st, ok
}

func (m *memoryStore) Set(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.UserID = userID
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	m.states[userID] = st
}

func (m *memoryStore) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}

// StaleUsers lists users whose state has not been touched since olderThan.
func (m *memoryStore) StaleUsers(olderThan time.Time) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id, st := range m.states {
		if st.UpdatedAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	return ids
}

// userLocks serializes flow transitions per user without a global lock.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

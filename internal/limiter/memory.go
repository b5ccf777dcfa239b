package limiter

import (
	"container/list"
	"context"
	"sync"
)

// MemoryStore keeps attempt state in a process-local map guarded by a
// single mutex. Contention is low: the map is touched only on login
// attempts, not on the request hot path.
//
// Entries for abandoned keys would otherwise live forever since expiry is
// lazy, so the store carries an optional LRU bound: when maxKeys > 0 the
// least recently touched keys are evicted once the map grows past the cap.
type MemoryStore struct {
	mu      sync.Mutex
	states  map[string]*State
	maxKeys int
	order   *list.List
	index   map[string]*list.Element
}

// NewMemoryStore creates a MemoryStore. maxKeys <= 0 disables eviction.
func NewMemoryStore(maxKeys int) *MemoryStore {
	return &MemoryStore{
		states:  make(map[string]*State),
		maxKeys: maxKeys,
		order:   list.New(),
		index:   make(map[string]*list.Element),
	}
}

// Update implements [Store]. The whole load-mutate-persist sequence runs
// under the store mutex.
func (m *MemoryStore) Update(_ context.Context, key string, fn func(s *State)) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[key]
	if !ok {
		state = &State{}
		m.states[key] = state
	}
	fn(state)
	m.touch(key)
	m.evict()

	return *state, nil
}

// Delete implements [Store].
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.states, key)
		if element, ok := m.index[key]; ok {
			m.order.Remove(element)
			delete(m.index, key)
		}
	}
	return nil
}

// Len reports the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

func (m *MemoryStore) touch(key string) {
	if element, ok := m.index[key]; ok {
		m.order.MoveToFront(element)
		return
	}
	m.index[key] = m.order.PushFront(key)
}

func (m *MemoryStore) evict() {
	if m.maxKeys <= 0 {
		return
	}
	for len(m.states) > m.maxKeys {
		element := m.order.Back()
		if element == nil {
			return
		}
		key := element.Value.(string)
		m.order.Remove(element)
		delete(m.index, key)
		delete(m.states, key)
	}
}

// Package keylock serializes work per key while letting different keys
// proceed in parallel. Entries are reference counted and dropped once no
// goroutine holds or waits on them.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map is a set of mutexes addressed by id. The zero value is not usable;
// call New.
type Map struct {
	mu    sync.Mutex
	locks map[uint]*entry
}

func New() *Map {
	return &Map{locks: make(map[uint]*entry)}
}

// Lock blocks until key is held and returns the matching unlock func.
func (m *Map) Lock(key uint) func() {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// Len reports the number of live entries.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

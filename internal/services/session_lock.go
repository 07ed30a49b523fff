package services

import (
	"context"
	"sync"
)

// SessionLocker serializes work on one interview session. Lock returns a
// release func that must be called exactly once.
type SessionLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

type memLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewMemLocker returns a process-local keyed mutex. Entries are dropped once
// nobody holds or waits on them.
func NewMemLocker() SessionLocker {
	return &memLocker{locks: map[string]*lockEntry{}}
}

func (m *memLocker) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e := m.locks[key]
	if e == nil {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.drop(key, e)
		})
	}, nil
}

func (m *memLocker) drop(key string, e *lockEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

func (m *memLocker) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

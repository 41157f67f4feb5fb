package lock

import "sync"

// KeyedMutex serializes work per key. Receipt posting and cancellation for
// one customer must run one at a time so that two concurrent receipts
// cannot both read the same period balances; different customers proceed
// in parallel.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*keyLock{}}
}

// Lock acquires the mutex for the key, blocking until it is free
func (m *KeyedMutex) Lock(key string) {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	kl.mu.Lock()
}

// Unlock releases the mutex for the key. The per-key entry is dropped once
// no goroutine holds or waits on it, so the map does not grow with the
// customer base.
func (m *KeyedMutex) Unlock(key string) {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		panic("lock: Unlock of unheld key " + key)
	}
	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()

	kl.mu.Unlock()
}

// WithLock runs fn while holding the key's mutex
func (m *KeyedMutex) WithLock(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

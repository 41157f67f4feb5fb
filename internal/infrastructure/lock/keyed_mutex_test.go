package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock("CUST001", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	m.Lock("CUST001")
	defer m.Unlock("CUST001")

	done := make(chan struct{})
	go func() {
		_ = m.WithLock("CUST002", func() error { return nil })
		close(done)
	}()

	<-done
}

func TestKeyedMutex_DropsIdleEntries(t *testing.T) {
	m := NewKeyedMutex()
	m.Lock("CUST001")
	m.Unlock("CUST001")

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks)
}

func TestKeyedMutex_UnlockUnheldPanics(t *testing.T) {
	m := NewKeyedMutex()
	assert.Panics(t, func() { m.Unlock("CUST001") })
}

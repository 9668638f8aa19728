package synchronizer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	locker := NewKeyedLocker()

	unlock := locker.Lock("g1")
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		release := locker.Lock("g1")
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("key was not released")
	}

	assert.Equal(t, 0, locker.size())
}

func TestKeyedLockerIndependentKeys(t *testing.T) {
	locker := NewKeyedLocker()

	unlockFirst := locker.Lock("g1")
	defer unlockFirst()

	done := make(chan struct{})
	go func() {
		defer close(done)
		unlock := locker.Lock("g2")
		unlock()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated key blocked")
	}
}

func TestKeyedLockerCleansUp(t *testing.T) {
	locker := NewKeyedLocker()

	counter := 0
	wg := &sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("g1")
			counter++
			unlock()
			// Releasing twice is harmless.
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locker.size())
}

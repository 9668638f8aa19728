package synchronizer

import (
	"sync"
)

// KeyedLocker hands out one mutex per deployment group ID.
// Entries are removed when the last holder or waiter releases them.
type KeyedLocker struct {
	lock  sync.Mutex
	locks map[string]*keyedMutex
}

type keyedMutex struct {
	sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[string]*keyedMutex),
	}
}

// Lock blocks until the key is free, and returns the function that releases it.
func (k *KeyedLocker) Lock(key string) (unlock func()) {
	k.lock.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &keyedMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.lock.Unlock()

	m.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.Unlock()

			k.lock.Lock()
			m.refs--
			if m.refs == 0 {
				delete(k.locks, key)
			}
			k.lock.Unlock()
		})
	}
}

func (k *KeyedLocker) size() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return len(k.locks)
}

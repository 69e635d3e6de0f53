package engine

import (
	"sort"
	"sync"
)

// keyedMutex hands out one mutex per key, created on demand and released
// once no holder or waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock acquires the locks for every key in sorted order and returns a
// function releasing them.
func (k *keyedMutex) Lock(keys ...string) func() {
	keys = append([]string(nil), keys...)
	sort.Strings(keys)
	unique := keys[:0]
	for i, key := range keys {
		if i == 0 || key != keys[i-1] {
			unique = append(unique, key)
		}
	}

	held := make([]*refMutex, 0, len(unique))
	for _, key := range unique {
		m := k.acquire(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
			k.release(unique[i], held[i])
		}
	}
}

func (k *keyedMutex) acquire(key string) *refMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	return m
}

func (k *keyedMutex) release(key string, m *refMutex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
}

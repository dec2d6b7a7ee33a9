package state

import (
	"sync"
)

type inMemStore[K comparable] struct {
	*sync.Map
}

func (t inMemStore[K]) Load(k K) (v any, ok bool, err error) {
	v, ok = t.Map.Load(k)
	return
}

func (t inMemStore[K]) InsertIfAbsent(k K, v any) (ok bool, err error) {
	_, loaded := t.Map.LoadOrStore(k, v)
	return !loaded, nil
}

func (t inMemStore[K]) CompareAndSwap(k K, old, new any) (ok bool, err error) {
	ok = t.Map.CompareAndSwap(k, old, new)
	return
}

func (t inMemStore[K]) CompareAndDelete(k K, old any) (ok bool, err error) {
	ok = t.Map.CompareAndDelete(k, old)
	return
}

// NewInMemoryStore returns a Store backed by a sync.Map, seeded with init.
// Values are compared with ==.
func NewInMemoryStore[K comparable](init map[K]any) Store[K] {
	s := inMemStore[K]{Map: &sync.Map{}}
	for k, v := range init {
		s.Map.Store(k, v)
	}
	return s
}

// Package keyed provides a get-or-create memo that allows at most one
// concurrent producer per key. Callers asking for the same key while a
// producer runs wait for it and share its value.
package keyed

import (
	"context"
	"sync"
)

// Memo caches values by key. Successful values are kept for the lifetime of
// the Memo; failed productions are not cached, so the next caller retries.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

type entry[V any] struct {
	// sem is a one-slot semaphore. A channel rather than a sync.Mutex so
	// waiters can give up when their context ends.
	sem   chan struct{}
	done  bool
	value V
}

// NewMemo returns an empty Memo.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: make(map[K]*entry[V])}
}

// Get returns the memoised value for key, calling produce when there is none.
// Only one produce call per key runs at a time; different keys never block
// each other.
func (m *Memo[K, V]) Get(ctx context.Context, key K, produce func(context.Context) (V, error)) (V, error) {
	e := m.entry(key)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
	defer func() { <-e.sem }()

	if e.done {
		return e.value, nil
	}

	v, err := produce(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	e.value = v
	e.done = true

	return v, nil
}

// size reports how many keys have a memoised value.
func (m *Memo[K, V]) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for _, e := range m.entries {
		// Reading done without the entry semaphore is racy while a producer
		// runs, so take it briefly.
		e.sem <- struct{}{}
		if e.done {
			n++
		}
		<-e.sem
	}

	return n
}

func (m *Memo[K, V]) entry(key K) *entry[V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry[V]{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}

	return e
}

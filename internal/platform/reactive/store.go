// Package reactive holds configuration snapshots and notifies subscribers
// when the slice of the value they select changes.
package reactive

import (
	"maps"
	"reflect"
	"slices"
	"sync"
)

// Source is a readable, watchable value.
type Source[T any] interface {
	Snapshot() T
	// Watch registers fn to run after every committed change. The returned
	// function removes the registration.
	Watch(fn func(T)) (cancel func())
}

// Store is the writable Source. Notifications are delivered in commit order,
// one change at a time.
type Store[T any] struct {
	mu       sync.RWMutex
	value    T
	watchers map[uint64]func(T)
	next     uint64

	notifyMu sync.Mutex
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, watchers: map[uint64]func(T){}}
}

func (s *Store[T]) Snapshot() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and republishes it.
func (s *Store[T]) Set(value T) {
	s.Update(func(v *T) { *v = value })
}

// Update applies fn to a copy of the current value and republishes the result.
// Watchers must not call Update from their callback.
func (s *Store[T]) Update(fn func(*T)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := s.value
	fn(&next)
	s.value = next
	watchers := make([]func(T), 0, len(s.watchers))
	for _, key := range slices.Sorted(maps.Keys(s.watchers)) {
		watchers = append(watchers, s.watchers[key])
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(next)
	}
}

func (s *Store[T]) Watch(fn func(T)) func() {
	s.mu.Lock()
	key := s.next
	s.next++
	s.watchers[key] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, key)
			s.mu.Unlock()
		})
	}
}

type view[T, S any] struct {
	src      Source[T]
	selector func(T) S
}

// Select derives a read-only view of one slice of src.
func Select[T, S any](src Source[T], selector func(T) S) Source[S] {
	return view[T, S]{src: src, selector: selector}
}

func (v view[T, S]) Snapshot() S {
	return v.selector(v.src.Snapshot())
}

func (v view[T, S]) Watch(fn func(S)) func() {
	return v.src.Watch(func(value T) { fn(v.selector(value)) })
}

// Subscribe calls fn with the selected slice whenever it differs from the
// previously observed one under equal. The slice at subscription time is the
// baseline and is not delivered.
func Subscribe[T, S any](src Source[T], selector func(T) S, equal func(a, b S) bool, fn func(S)) func() {
	var mu sync.Mutex
	last := selector(src.Snapshot())
	return src.Watch(func(value T) {
		selected := selector(value)
		mu.Lock()
		if equal(last, selected) {
			mu.Unlock()
			return
		}
		last = selected
		mu.Unlock()
		fn(selected)
	})
}

// Equal is the equality function for comparable slices.
func Equal[S comparable](a, b S) bool {
	return a == b
}

// DeepEqual compares slices structurally.
func DeepEqual[S any](a, b S) bool {
	return reflect.DeepEqual(a, b)
}

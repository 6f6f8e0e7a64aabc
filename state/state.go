// Package state holds small observable values shared between UI handlers.
package state

import "sync"

// Value is an observable value. Subscribers get the current value when they
// subscribe and again after every write. Writes are serialized together with
// their notifications, so every subscriber sees writes in the same order.
//
// Subscribers run on the writer's goroutine and must not write to the same
// Value synchronously.
type Value[T any] struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	v      T
	subs   []subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

// Get returns the current value.
func (s *Value[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// Set stores v and notifies subscribers.
func (s *Value[T]) Set(v T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.v = v
	subs := append([]subscriber[T](nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Update replaces the value with fn(current) and notifies subscribers.
// It returns the new value.
func (s *Value[T]) Update(fn func(T) T) T {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.v = fn(s.v)
	v := s.v
	subs := append([]subscriber[T](nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
	return v
}

// Subscribe registers fn and calls it once with the current value. The
// returned function removes the subscription; calling it again is a no-op.
func (s *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	v := s.v
	s.mu.Unlock()

	fn(v)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Value[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Value[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

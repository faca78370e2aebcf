package session

import "sync"

// Subject is an observable slot holding the latest value of one piece of
// session state. A new subscriber receives the current value immediately,
// then every published value until it unsubscribes. Publishing is
// synchronous: by the time Publish returns, every subscriber has seen the
// value, in subscription order. There is no buffering and no coalescing.
//
// Callbacks run on the publishing goroutine. They must return promptly
// and must not call store mutators; consumers that need to react with
// further work should hand the value off to their own goroutine or event
// loop.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	subs   []*subscriber[T]
	nextID int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscription detaches a subscriber from its Subject.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// NewSubject creates a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the latest published value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers fn and invokes it with the current value before
// returning.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	sub := &subscriber[T]{id: s.nextID, fn: fn}
	s.nextID++
	s.subs = append(s.subs, sub)
	current := s.value
	s.mu.Unlock()

	fn(current)
	return &Subscription{cancel: func() { s.remove(sub.id) }}
}

// Publish stores v as the latest value and delivers it to every
// subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

func (s *Subject[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

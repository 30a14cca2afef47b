// Package core defines the reactive primitives that views are built on:
// observable values, ordered collections with change events, explicit
// subscriptions and dependency tracking.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other view packages.
package core

import (
	"errors"
	"sync"
)

// Subscription is an explicit handle on a registered listener.
// Releasing it removes the listener; releasing twice is a no-op.
type Subscription struct {
	once    sync.Once
	release func()
}

func newSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Release detaches the listener. It is safe to call on a nil Subscription.
func (s *Subscription) Release() {
	if s == nil || s.release == nil {
		return
	}
	s.once.Do(s.release)
}

type listener[E any] struct {
	id uint64
	fn func(E) error
}

// Emitter holds listeners for events of type E and invokes them in
// registration (FIFO) order. The zero value is ready to use.
type Emitter[E any] struct {
	mu        sync.Mutex
	next      uint64
	listeners []listener[E]
}

// Subscribe registers fn and returns the Subscription that removes it.
func (e *Emitter[E]) Subscribe(fn func(E) error) *Subscription {
	e.mu.Lock()
	e.next++
	id := e.next
	e.listeners = append(e.listeners, listener[E]{id: id, fn: fn})
	e.mu.Unlock()

	return newSubscription(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	})
}

// Emit invokes every listener registered at the time of the call.
// Listeners run without the emitter lock held, so they may subscribe,
// release or emit again. All listener errors are joined.
func (e *Emitter[E]) Emit(event E) error {
	e.mu.Lock()
	snapshot := make([]listener[E], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	var errs []error
	for _, l := range snapshot {
		if err := l.fn(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered listeners.
func (e *Emitter[E]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Clear removes all listeners.
func (e *Emitter[E]) Clear() {
	e.mu.Lock()
	e.listeners = nil
	e.mu.Unlock()
}

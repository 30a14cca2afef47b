package core

import (
	"errors"
	"fmt"
	"iter"
	"sync"
)

// Event names a kind of change on an ordered collection.
type Event string

// Collection change events
const (
	Added    Event = "items:add"
	Removed  Event = "items:remove"
	Reset    Event = "items:reset"
	Disposed Event = "items:dispose"
)

var (
	// ErrClosed is returned by mutations on a disposed collection.
	ErrClosed = errors.New("collection closed")
	// ErrIndexOutOfRange is returned for positions outside the collection.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Change is the payload of a collection event. For Added and Removed,
// Index is the position of the first affected item and Items holds the
// affected items. For Reset, Items holds the new content.
type Change[T any] struct {
	Event Event
	Index int
	Items []T
}

// Source is the read and notify contract every view consumes. Items
// returns a snapshot the caller owns.
type Source[T any] interface {
	Items() []T
	Subscribe(fn func(Change[T]) error) *Subscription
}

// Collection is a reactive ordered sequence. Every mutation emits exactly
// one Change; subscriber errors are returned from the mutating call.
type Collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	closed  bool
	changes Emitter[Change[T]]
}

// NewCollection returns a collection holding items in order.
func NewCollection[T any](items ...T) *Collection[T] {
	c := &Collection[T]{}
	c.items = append(c.items, items...)
	return c
}

// Items returns a copy of the current content.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At returns the item at index i.
func (c *Collection[T]) At(i int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// All iterates over a snapshot of the content.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	items := c.Items()
	return func(yield func(int, T) bool) {
		for i, item := range items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Subscribe registers fn for every subsequent change.
func (c *Collection[T]) Subscribe(fn func(Change[T]) error) *Subscription {
	return c.changes.Subscribe(fn)
}

// Add appends items and emits one Added change.
func (c *Collection[T]) Add(items ...T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	index := len(c.items)
	c.items = append(c.items, items...)
	c.mu.Unlock()

	return c.changes.Emit(Change[T]{Event: Added, Index: index, Items: clone(items)})
}

// Insert places items before position i. i may equal Len to append.
func (c *Collection[T]) Insert(i int, items ...T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if i < 0 || i > len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return fmt.Errorf("insert at %d of %d: %w", i, n, ErrIndexOutOfRange)
	}
	merged := make([]T, 0, len(c.items)+len(items))
	merged = append(merged, c.items[:i]...)
	merged = append(merged, items...)
	merged = append(merged, c.items[i:]...)
	c.items = merged
	c.mu.Unlock()

	return c.changes.Emit(Change[T]{Event: Added, Index: i, Items: clone(items)})
}

// RemoveAt removes the item at position i and emits one Removed change.
func (c *Collection[T]) RemoveAt(i int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if i < 0 || i >= len(c.items) {
		n := len(c.items)
		c.mu.Unlock()
		return fmt.Errorf("remove at %d of %d: %w", i, n, ErrIndexOutOfRange)
	}
	removed := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.mu.Unlock()

	return c.changes.Emit(Change[T]{Event: Removed, Index: i, Items: []T{removed}})
}

// RemoveFunc removes every item for which match returns true and emits a
// single Removed change when anything was removed. It returns the number
// of removed items.
func (c *Collection[T]) RemoveFunc(match func(T) bool) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	first := -1
	var removed []T
	kept := make([]T, 0, len(c.items))
	for i, item := range c.items {
		if match(item) {
			if first < 0 {
				first = i
			}
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	if len(removed) == 0 {
		c.mu.Unlock()
		return 0, nil
	}
	c.items = kept
	c.mu.Unlock()

	return len(removed), c.changes.Emit(Change[T]{Event: Removed, Index: first, Items: removed})
}

// Reset replaces the whole content with items and emits one Reset change.
// Calling Reset without arguments clears the collection.
func (c *Collection[T]) Reset(items ...T) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.items = clone(items)
	c.mu.Unlock()

	return c.changes.Emit(Change[T]{Event: Reset, Items: clone(items)})
}

// Close disposes the collection: subscribers receive a Disposed change and
// are then detached. Further mutations fail with ErrClosed.
func (c *Collection[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.changes.Emit(Change[T]{Event: Disposed})
	c.changes.Clear()
	return err
}

// Subscribers returns the number of active subscriptions.
func (c *Collection[T]) Subscribers() int {
	return c.changes.Len()
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

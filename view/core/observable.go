package core

import "sync"

// Readable yields a current value. Parameters of view stages are
// Readables so that a plain constant and a reactive value can be used
// interchangeably.
type Readable[T any] interface {
	Get() T
}

// Unwrapper is implemented by containers that can be resolved to the plain
// value they hold.
type Unwrapper interface {
	Unwrap() any
}

// Unwrap resolves x to a plain value, following nested containers.
// Plain values are returned as is.
func Unwrap(x any) any {
	for {
		u, ok := x.(Unwrapper)
		if !ok {
			return x
		}
		x = u.Unwrap()
	}
}

// IsReactive reports whether x can notify dependents about changes.
func IsReactive(x any) bool {
	_, ok := x.(Dependency)
	return ok
}

type constant[T any] struct {
	value T
}

func (c constant[T]) Get() T { return c.value }

func (c constant[T]) Unwrap() any { return c.value }

// Const returns a non-reactive Readable that always yields value.
func Const[T any](value T) Readable[T] {
	return constant[T]{value: value}
}

// Observable is a reactive value container. Get records the observable
// as a dependency of the enclosing Track frame; Set notifies subscribers.
type Observable[T any] struct {
	mu      sync.RWMutex
	value   T
	changed Emitter[struct{}]
}

// NewObservable returns an Observable holding value.
func NewObservable[T any](value T) *Observable[T] {
	return &Observable[T]{value: value}
}

// Get returns the current value and tracks the read.
func (o *Observable[T]) Get() T {
	Touch(o)
	return o.Peek()
}

// Peek returns the current value without tracking the read.
func (o *Observable[T]) Peek() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Unwrap returns the current value and tracks the read.
func (o *Observable[T]) Unwrap() any {
	return o.Get()
}

// Set stores value and notifies subscribers. Subscriber errors are
// returned to the caller.
func (o *Observable[T]) Set(value T) error {
	o.mu.Lock()
	o.value = value
	o.mu.Unlock()
	return o.changed.Emit(struct{}{})
}

// Update replaces the value with fn applied to the current one.
func (o *Observable[T]) Update(fn func(T) T) error {
	o.mu.Lock()
	o.value = fn(o.value)
	o.mu.Unlock()
	return o.changed.Emit(struct{}{})
}

// Subscribe registers fn to run after every Set or Update.
func (o *Observable[T]) Subscribe(fn func() error) *Subscription {
	return o.changed.Subscribe(func(struct{}) error { return fn() })
}

// Subscribers returns the number of active subscriptions.
func (o *Observable[T]) Subscribers() int {
	return o.changed.Len()
}

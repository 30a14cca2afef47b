package view

import "github.com/lguimbarda/min-view/view/core"

// Type aliases for the reactive primitives.
// These allow users to build views without importing core directly.
type (
	// Source is the read and notify contract a view consumes.
	Source[T any] = core.Source[T]

	// Collection is a reactive ordered sequence.
	Collection[T any] = core.Collection[T]

	// Change is the payload of a collection event.
	Change[T any] = core.Change[T]

	// Observable is a reactive value container.
	Observable[T any] = core.Observable[T]

	// Readable yields a current value, reactive or not.
	Readable[T any] = core.Readable[T]

	// Subscription detaches a listener when released.
	Subscription = core.Subscription
)

// NewCollection returns a collection holding items in order.
func NewCollection[T any](items ...T) *Collection[T] {
	return core.NewCollection(items...)
}

// NewObservable returns an observable holding value.
func NewObservable[T any](value T) *Observable[T] {
	return core.NewObservable(value)
}

// Const returns a non-reactive Readable.
func Const[T any](value T) Readable[T] {
	return core.Const(value)
}

// Unwrap resolves x to a plain value whether it is reactive or not.
func Unwrap(x any) any {
	return core.Unwrap(x)
}

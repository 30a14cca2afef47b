package core

// Hooks holds typed observation callbacks for a collection or view.
// All fields are optional - nil means no observation for that event.
// Hooks are invoked synchronously inside the mutating call, so they
// should be fast and must not block.
type Hooks[T any] struct {
	OnAdd     func(index int, items []T) // Items inserted at index
	OnRemove  func(index int, items []T) // Items removed, first at index
	OnReset   func(items []T)            // Content replaced
	OnDispose func()                     // Source torn down
}

// Observe attaches hooks to src and returns the Subscription that
// detaches them.
//
// Example:
//
//	sub := core.Observe(coll, core.Hooks[int]{
//	    OnAdd: func(i int, items []int) { log.Printf("added %v at %d", items, i) },
//	})
//	defer sub.Release()
func Observe[T any](src Source[T], hooks Hooks[T]) *Subscription {
	return src.Subscribe(func(c Change[T]) error {
		hooks.dispatch(c)
		return nil
	})
}

func (h Hooks[T]) dispatch(c Change[T]) {
	switch c.Event {
	case Added:
		if h.OnAdd != nil {
			h.OnAdd(c.Index, c.Items)
		}
	case Removed:
		if h.OnRemove != nil {
			h.OnRemove(c.Index, c.Items)
		}
	case Reset:
		if h.OnReset != nil {
			h.OnReset(c.Items)
		}
	case Disposed:
		if h.OnDispose != nil {
			h.OnDispose()
		}
	}
}

// SafeHooks wraps Hooks[T] to recover from panics in hook functions.
// Use this when hooks are user-provided and a panic must not abort the
// mutation that triggered them.
type SafeHooks[T any] struct {
	Hooks[T]
	panicHandler func(any)
}

// NewSafeHooks creates SafeHooks from regular Hooks.
// If panicHandler is nil, panics are silently recovered.
func NewSafeHooks[T any](hooks Hooks[T], panicHandler func(any)) SafeHooks[T] {
	if panicHandler == nil {
		panicHandler = func(any) {}
	}

	safe := SafeHooks[T]{panicHandler: panicHandler}
	guard := func(fn func()) {
		defer func() {
			if r := recover(); r != nil {
				safe.panicHandler(r)
			}
		}()
		fn()
	}

	if hooks.OnAdd != nil {
		original := hooks.OnAdd
		safe.OnAdd = func(i int, items []T) { guard(func() { original(i, items) }) }
	}
	if hooks.OnRemove != nil {
		original := hooks.OnRemove
		safe.OnRemove = func(i int, items []T) { guard(func() { original(i, items) }) }
	}
	if hooks.OnReset != nil {
		original := hooks.OnReset
		safe.OnReset = func(items []T) { guard(func() { original(items) }) }
	}
	if hooks.OnDispose != nil {
		original := hooks.OnDispose
		safe.OnDispose = func() { guard(original) }
	}

	return safe
}

// ObserveSafe is a convenience function that wraps hooks with panic
// recovery before attaching them to src.
func ObserveSafe[T any](src Source[T], hooks Hooks[T], panicHandler func(any)) *Subscription {
	return Observe(src, NewSafeHooks(hooks, panicHandler).Hooks)
}

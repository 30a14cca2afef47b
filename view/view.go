// Package view provides live, chainable views over reactive ordered
// collections.
//
// A View is built from a source with Of and extended with Filter, Sort,
// Skip, Take and Step. Each call appends one stage; stages apply strictly
// in call order. The view's content is the image of the source's current
// content under the whole chain, recomputed from scratch whenever the
// source changes or any reactive value read during the last recompute
// changes.
//
//	people := core.NewCollection(alice, bob, carol)
//	query := core.NewObservable("")
//	v := view.Of[Person](people).
//		Filter(filter.Match[Person](query)).
//		Sort(order.ByField[Person]("Name")).
//		TakeN(10)
//
//	_ = query.Set("ca") // v now holds carol only
//
// A View is itself a source, so views can be chained into further views.
// Views are synchronous: a recompute runs to completion inside the call
// that mutated its source.
package view

import (
	"iter"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/lguimbarda/min-view/view/core"
	"github.com/lguimbarda/min-view/view/filter"
	"github.com/lguimbarda/min-view/view/order"
)

// State is the lifecycle state of a View.
type State uint8

// View states
const (
	Uninitialized State = iota // stages may be appended, nothing computed yet
	Initializing               // first materialization running
	Ready                      // content current, reacting to changes
	Disposed                   // detached from its source for good
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// View is a derived collection kept equal to its source's content under an
// ordered chain of stages.
type View[T any] struct {
	mu   sync.Mutex
	id   uuid.UUID
	src  core.Source[T]
	opts options
	log  logr.Logger

	ops   []Op[T]
	items []T
	state State
	err   error

	computing bool
	pending   Trigger

	source  *core.Subscription
	conns   connections
	changes core.Emitter[core.Change[T]]
}

var _ core.Source[int] = (*View[int])(nil)

// Of creates an empty-chain View over src. The source subscription is
// registered here, once, whatever stages are appended later; the content
// is computed on first read or Materialize.
func Of[T any](src core.Source[T], opts ...Option) *View[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	v := &View[T]{id: uuid.New(), src: src, opts: o}
	v.log = o.log.WithValues("view", v.id.String())
	if o.name != "" {
		v.log = v.log.WithValues("name", o.name)
	}
	v.source = src.Subscribe(v.onSource)
	return v
}

// Filter appends a filter stage.
func (v *View[T]) Filter(spec filter.Spec[T]) *View[T] {
	return v.extend(NewFilter(spec))
}

// FilterAny appends a filter stage built from untyped options, see
// ParseFilter.
func (v *View[T]) FilterAny(options any) *View[T] {
	return v.extend(ParseFilter[T](options))
}

// Sort appends a stable sort stage.
func (v *View[T]) Sort(c order.Comparator[T]) *View[T] {
	return v.extend(NewSort(c))
}

// SortAny appends a sort stage built from untyped options, see ParseSort.
func (v *View[T]) SortAny(options any) *View[T] {
	return v.extend(ParseSort[T](options))
}

// Skip appends a stage dropping the first n items.
func (v *View[T]) Skip(n core.Readable[int]) *View[T] {
	return v.extend(NewCount[T](KindSkip, n))
}

// SkipN is Skip with a fixed count.
func (v *View[T]) SkipN(n int) *View[T] {
	return v.Skip(core.Const(n))
}

// SkipAny appends a skip stage built from untyped options, see ParseCount.
func (v *View[T]) SkipAny(options any) *View[T] {
	return v.extend(ParseCount[T](KindSkip, options))
}

// Take appends a stage keeping only the first n items.
func (v *View[T]) Take(n core.Readable[int]) *View[T] {
	return v.extend(NewCount[T](KindTake, n))
}

// TakeN is Take with a fixed count.
func (v *View[T]) TakeN(n int) *View[T] {
	return v.Take(core.Const(n))
}

// TakeAny appends a take stage built from untyped options, see ParseCount.
func (v *View[T]) TakeAny(options any) *View[T] {
	return v.extend(ParseCount[T](KindTake, options))
}

// Step appends a stage keeping every nth item.
func (v *View[T]) Step(n core.Readable[int]) *View[T] {
	return v.extend(NewCount[T](KindStep, n))
}

// StepN is Step with a fixed count.
func (v *View[T]) StepN(n int) *View[T] {
	return v.Step(core.Const(n))
}

// StepAny appends a step stage built from untyped options, see ParseCount.
func (v *View[T]) StepAny(options any) *View[T] {
	return v.extend(ParseCount[T](KindStep, options))
}

// extend keeps the fluent chain going; the first failure is kept in Err.
func (v *View[T]) extend(op Op[T], err error) *View[T] {
	if err == nil {
		err = v.Append(op)
	}
	if err != nil {
		v.log.Error(err, "stage rejected")
		v.mu.Lock()
		if v.err == nil {
			v.err = err
		}
		v.mu.Unlock()
	}
	return v
}

// Append adds descriptors to the chain. Appending to a Ready view
// recomputes it and returns the recompute error, if any.
func (v *View[T]) Append(ops ...Op[T]) error {
	for _, op := range ops {
		if op.kind < KindFilter || op.kind > KindStep {
			return invalid(op.kind, op, "descriptor was not built by a stage constructor")
		}
	}

	v.mu.Lock()
	if v.state == Disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	v.ops = append(v.ops, ops...)
	ready := v.state == Ready
	v.mu.Unlock()

	if ready {
		return v.recompute(TriggerStage)
	}
	return nil
}

// Materialize computes the content for the first time and starts reacting
// to changes. It is a no-op on a Ready view. A chain with a rejected stage
// never materializes: Materialize returns that rejection.
func (v *View[T]) Materialize() error {
	v.mu.Lock()
	switch v.state {
	case Ready, Initializing:
		v.mu.Unlock()
		return nil
	case Disposed:
		v.mu.Unlock()
		return ErrDisposed
	}
	if v.err != nil {
		err := v.err
		v.mu.Unlock()
		return err
	}
	v.state = Initializing
	stages := len(v.ops)
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		if v.state == Initializing {
			v.state = Uninitialized
		}
		v.mu.Unlock()
	}()

	v.log.V(1).Info("materializing", "stages", stages)
	return v.recompute(TriggerInit)
}

func (v *View[T]) ensure() {
	v.mu.Lock()
	st := v.state
	v.mu.Unlock()
	if st != Uninitialized {
		return
	}
	if err := v.Materialize(); err != nil {
		v.log.Error(err, "materialize on read failed")
	}
}

// Items returns a copy of the current content, materializing the view if
// needed.
func (v *View[T]) Items() []T {
	v.ensure()
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// Len returns the number of items in the view.
func (v *View[T]) Len() int {
	v.ensure()
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// At returns the item at index i.
func (v *View[T]) At(i int) (T, bool) {
	v.ensure()
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 0 || i >= len(v.items) {
		var zero T
		return zero, false
	}
	return v.items[i], true
}

// All iterates over a snapshot of the content.
func (v *View[T]) All() iter.Seq2[int, T] {
	items := v.Items()
	return func(yield func(int, T) bool) {
		for i, item := range items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Subscribe registers fn for the view's changes: a Reset carrying the new
// content after every recompute and Disposed when the view goes away.
// Subscribing materializes the view.
func (v *View[T]) Subscribe(fn func(core.Change[T]) error) *core.Subscription {
	v.ensure()
	return v.changes.Subscribe(fn)
}

// ID returns the view's unique id.
func (v *View[T]) ID() uuid.UUID { return v.id }

// Name returns the name given with WithName.
func (v *View[T]) Name() string { return v.opts.name }

// Source returns the collection the view derives from.
func (v *View[T]) Source() core.Source[T] { return v.src }

// State returns the lifecycle state.
func (v *View[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Stages returns a copy of the descriptor chain in application order.
func (v *View[T]) Stages() []Op[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.ops)
}

// Dependencies returns the number of reactive values the view currently
// listens to, besides its source.
func (v *View[T]) Dependencies() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.conns)
}

// Err returns the first error raised by a chained call, such as a stage
// rejected with ErrInvalidOptions.
func (v *View[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Close disposes the view: it releases the source subscription and every
// connection, notifies subscribers with Disposed and detaches them.
func (v *View[T]) Close() error {
	return v.dispose()
}

func (v *View[T]) onSource(c core.Change[T]) error {
	if c.Event == core.Disposed {
		return v.dispose()
	}
	return v.recompute(TriggerSource)
}

func (v *View[T]) onDependency() error {
	return v.recompute(TriggerDependency)
}

func (v *View[T]) dispose() error {
	v.mu.Lock()
	if v.state == Disposed {
		v.mu.Unlock()
		return nil
	}
	v.state = Disposed
	src, conns := v.source, v.conns
	v.source, v.conns, v.items = nil, nil, nil
	v.mu.Unlock()

	src.Release()
	conns.release()

	v.log.V(1).Info("disposed")
	v.opts.hooks.dispose(v.id)

	err := v.changes.Emit(core.Change[T]{Event: core.Disposed})
	v.changes.Clear()
	return err
}

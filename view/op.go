package view

import (
	"fmt"
	"math"
	"reflect"

	"github.com/lguimbarda/min-view/view/core"
	"github.com/lguimbarda/min-view/view/filter"
	"github.com/lguimbarda/min-view/view/order"
)

// Kind identifies a pipeline stage.
type Kind uint8

// Stage kinds
const (
	KindFilter Kind = iota + 1
	KindSort
	KindSkip
	KindTake
	KindStep
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindSort:
		return "sort"
	case KindSkip:
		return "skip"
	case KindTake:
		return "take"
	case KindStep:
		return "step"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a stage name to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k := KindFilter; k <= KindStep; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Op is an immutable descriptor of one pipeline stage: its kind and the
// parameter it was created with. Parameters are resolved on every
// recompute, never at creation.
type Op[T any] struct {
	kind  Kind
	where filter.Spec[T]
	order order.Comparator[T]
	count core.Readable[int]
}

// Kind returns the stage kind.
func (o Op[T]) Kind() Kind { return o.kind }

// Reactive reports whether the stage parameter itself can change.
func (o Op[T]) Reactive() bool {
	return o.count != nil && core.IsReactive(o.count)
}

func (o Op[T]) String() string {
	switch o.kind {
	case KindFilter:
		return o.where.String()
	case KindSort:
		return o.order.String()
	case KindSkip, KindTake, KindStep:
		if o.Reactive() {
			return fmt.Sprintf("%s(<reactive>)", o.kind)
		}
		return fmt.Sprintf("%s(%d)", o.kind, o.count.Get())
	default:
		return o.kind.String()
	}
}

// stage is an Op with its parameter resolved for one recompute.
type stage[T any] func([]T) ([]T, error)

// resolve reads the parameter and returns the stage function. Reactive
// reads happen here, inside the recompute's tracking frame.
func (o Op[T]) resolve() (stage[T], error) {
	switch o.kind {
	case KindFilter:
		pred, err := o.where.Resolve()
		if err != nil {
			return nil, err
		}
		return func(items []T) ([]T, error) {
			return filter.Apply(items, pred)
		}, nil
	case KindSort:
		fn, err := o.order.Resolve()
		if err != nil {
			return nil, err
		}
		return func(items []T) ([]T, error) {
			order.Stable(items, fn)
			return items, nil
		}, nil
	case KindSkip:
		n := o.count.Get()
		return func(items []T) ([]T, error) { return filter.Skip(items, n), nil }, nil
	case KindTake:
		n := o.count.Get()
		return func(items []T) ([]T, error) { return filter.Take(items, n), nil }, nil
	case KindStep:
		n := o.count.Get()
		return func(items []T) ([]T, error) { return filter.Step(items, n), nil }, nil
	default:
		return nil, fmt.Errorf("unknown stage kind %s", o.kind)
	}
}

// NewFilter creates a filter descriptor.
func NewFilter[T any](spec filter.Spec[T]) (Op[T], error) {
	if !spec.Valid() {
		return Op[T]{}, invalid(KindFilter, spec, "filter spec has no predicate or pattern")
	}
	return Op[T]{kind: KindFilter, where: spec}, nil
}

// NewSort creates a sort descriptor.
func NewSort[T any](c order.Comparator[T]) (Op[T], error) {
	if !c.Valid() {
		return Op[T]{}, invalid(KindSort, c, "comparator has no function or field")
	}
	return Op[T]{kind: KindSort, order: c}, nil
}

// NewCount creates a skip, take or step descriptor.
func NewCount[T any](kind Kind, n core.Readable[int]) (Op[T], error) {
	switch kind {
	case KindSkip, KindTake, KindStep:
	default:
		return Op[T]{}, invalid(kind, n, "not a positional stage")
	}
	if n == nil {
		return Op[T]{}, invalid(kind, n, "count is nil")
	}
	return Op[T]{kind: kind, count: n}, nil
}

// ParseFilter creates a filter descriptor from untyped options: a
// filter.Spec, a predicate function, or a pattern. A pattern is any scalar
// or container of one, rendered with filter.PatternText on every
// recompute; nil, false and zero match everything. Values that cannot be
// rendered as text are rejected.
func ParseFilter[T any](options any) (Op[T], error) {
	switch opt := options.(type) {
	case nil:
		return NewFilter(filter.MatchString[T](""))
	case filter.Spec[T]:
		return NewFilter(opt)
	case func(T) bool:
		return NewFilter(filter.Where(opt))
	case func(T) (bool, error):
		return NewFilter(filter.WhereErr(opt))
	case core.Readable[string]:
		return NewFilter(filter.Match[T](opt))
	case string:
		return NewFilter(filter.MatchString[T](opt))
	}
	spec, err := filter.MatchValue[T](options)
	if err != nil {
		return Op[T]{}, invalid(KindFilter, options, "expected a predicate, a pattern or a filter.Spec")
	}
	return NewFilter(spec)
}

// ParseSort creates a sort descriptor from untyped options: an
// order.Comparator, a comparison function or a field name.
func ParseSort[T any](options any) (Op[T], error) {
	switch opt := options.(type) {
	case order.Comparator[T]:
		return NewSort(opt)
	case func(a, b T) int:
		return NewSort(order.By(opt))
	case string:
		if opt == "" {
			return Op[T]{}, invalid(KindSort, options, "field name is empty")
		}
		return NewSort(order.ByField[T](opt))
	default:
		return Op[T]{}, invalid(KindSort, options, "expected a comparison function or a field name")
	}
}

// ParseCount creates a skip, take or step descriptor from untyped options:
// a core.Readable[int] or a number with no fractional part. Strings,
// booleans and other values are rejected rather than coerced.
func ParseCount[T any](kind Kind, options any) (Op[T], error) {
	if r, ok := options.(core.Readable[int]); ok {
		return NewCount[T](kind, r)
	}
	n, ok := integer(options)
	if !ok {
		return Op[T]{}, invalid(kind, options, "expected an integer or a reactive integer")
	}
	return NewCount[T](kind, core.Const(n))
}

func integer(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt || f < math.MinInt {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

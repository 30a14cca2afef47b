// Package filter provides the selection stages of a view: predicate and
// pattern filters, and the positional Skip, Take and Step stages.
package filter

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/lguimbarda/min-view/view/core"
)

// Kind tags the variant held by a Spec.
type Kind uint8

const (
	// KindPredicate filters with a user function.
	KindPredicate Kind = iota + 1
	// KindPattern filters with a case-insensitive substring pattern.
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindPredicate:
		return "predicate"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Predicate decides whether an item is kept.
type Predicate[T any] func(T) (bool, error)

// Spec describes a filter stage. It is either a predicate or a pattern;
// the zero value is invalid.
type Spec[T any] struct {
	kind      Kind
	predicate Predicate[T]
	pattern   core.Readable[string]
	value     any
}

// Where creates a Spec that keeps items matching the predicate.
func Where[T any](predicate func(T) bool) Spec[T] {
	if predicate == nil {
		return Spec[T]{}
	}
	return Spec[T]{kind: KindPredicate, predicate: func(v T) (bool, error) {
		return predicate(v), nil
	}}
}

// WhereErr creates a Spec from a predicate that can fail. A failure aborts
// the recompute and is returned to the caller that triggered it.
func WhereErr[T any](predicate func(T) (bool, error)) Spec[T] {
	if predicate == nil {
		return Spec[T]{}
	}
	return Spec[T]{kind: KindPredicate, predicate: predicate}
}

// Exclude creates a Spec that drops items matching the predicate.
// This is the inverse of Where.
func Exclude[T any](predicate func(T) bool) Spec[T] {
	if predicate == nil {
		return Spec[T]{}
	}
	return Where(func(v T) bool { return !predicate(v) })
}

// Match creates a pattern Spec. The pattern is read once per recompute; if
// it is reactive, changing it recomputes the view. An empty pattern keeps
// everything, otherwise an item is kept when its lowercased text contains
// the lowercased pattern.
func Match[T any](pattern core.Readable[string]) Spec[T] {
	if pattern == nil {
		return Spec[T]{}
	}
	return Spec[T]{kind: KindPattern, pattern: pattern}
}

// MatchString creates a pattern Spec from a fixed string.
func MatchString[T any](pattern string) Spec[T] {
	return Match[T](core.Const(pattern))
}

// MatchValue creates a pattern Spec from a scalar, or from a container
// such as an Observable holding one. The value is unwrapped and rendered
// with PatternText on every recompute. Values that cannot be rendered as
// text are rejected.
func MatchValue[T any](pattern any) (Spec[T], error) {
	switch p := pattern.(type) {
	case nil:
		return MatchString[T](""), nil
	case core.Readable[string]:
		return Match[T](p), nil
	}
	var err error
	core.Untracked(func() { _, err = PatternText(pattern) })
	if err != nil {
		return Spec[T]{}, err
	}
	return Spec[T]{kind: KindPattern, value: pattern}, nil
}

// Kind returns the variant tag, or 0 for an invalid Spec.
func (s Spec[T]) Kind() Kind { return s.kind }

// Valid reports whether the Spec can be resolved.
func (s Spec[T]) Valid() bool {
	switch s.kind {
	case KindPredicate:
		return s.predicate != nil
	case KindPattern:
		return s.pattern != nil || s.value != nil
	default:
		return false
	}
}

// Resolve reads the Spec's parameters and returns the predicate to apply
// for one recompute.
func (s Spec[T]) Resolve() (Predicate[T], error) {
	switch s.kind {
	case KindPredicate:
		return s.predicate, nil
	case KindPattern:
		if s.pattern != nil {
			return patternPredicate[T](s.pattern.Get()), nil
		}
		text, err := PatternText(s.value)
		if err != nil {
			return nil, err
		}
		return patternPredicate[T](text), nil
	default:
		return nil, fmt.Errorf("unresolvable filter spec (kind %s)", s.kind)
	}
}

func (s Spec[T]) String() string {
	switch {
	case s.kind != KindPattern:
	case s.pattern != nil:
		if core.IsReactive(s.pattern) {
			return "filter(pattern=<reactive>)"
		}
		return fmt.Sprintf("filter(pattern=%q)", s.pattern.Get())
	case s.value != nil:
		if core.IsReactive(s.value) {
			return "filter(pattern=<reactive>)"
		}
		text, _ := PatternText(s.value)
		return fmt.Sprintf("filter(pattern=%q)", text)
	}
	return fmt.Sprintf("filter(%s)", s.kind)
}

// PatternText unwraps v and renders it as a pattern. Falsy values (nil,
// false, zero numbers, NaN and the empty string) render as the empty
// pattern, which matches everything.
func PatternText(v any) (string, error) {
	v = core.Unwrap(v)
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if !rv.Bool() {
			return "", nil
		}
		return "true", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() == 0 {
			return "", nil
		}
		return cast.ToStringE(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() == 0 {
			return "", nil
		}
		return cast.ToStringE(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == 0 || math.IsNaN(f) {
			return "", nil
		}
		return cast.ToStringE(f)
	case reflect.String:
		return rv.String(), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("pattern %T cannot be rendered as text: %w", v, err)
	}
	return s, nil
}

func patternPredicate[T any](pattern string) Predicate[T] {
	needle := strings.ToLower(pattern)
	return func(item T) (bool, error) {
		if needle == "" {
			return true, nil
		}
		return strings.Contains(strings.ToLower(Text(item)), needle), nil
	}
}

// Text renders an item as the string used for pattern matching. Reactive
// items are unwrapped (and tracked) first; nil renders as "null".
func Text(item any) string {
	v := core.Unwrap(item)
	if v == nil {
		return "null"
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// Apply keeps the items for which predicate returns true, preserving order.
func Apply[T any](items []T, predicate Predicate[T]) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		ok, err := predicate(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

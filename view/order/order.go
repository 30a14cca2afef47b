// Package order provides the comparators used by the sort stage of a view.
// Sorting is always stable: items that compare equal keep their relative
// input order.
package order

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/lguimbarda/min-view/view/core"
)

// Kind tags the variant held by a Comparator.
type Kind uint8

const (
	// KindFunc orders with a user comparison function.
	KindFunc Kind = iota + 1
	// KindField orders by a named field of each item.
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// Comparator describes a sort stage. The zero value is invalid.
type Comparator[T any] struct {
	kind  Kind
	fn    func(a, b T) int
	field string
	desc  bool
}

// By creates a Comparator from a function returning a negative number when
// a sorts before b, zero when they are equal and a positive number
// otherwise.
func By[T any](fn func(a, b T) int) Comparator[T] {
	if fn == nil {
		return Comparator[T]{}
	}
	return Comparator[T]{kind: KindFunc, fn: fn}
}

// ByField creates a Comparator that unwraps each item, reads the named
// struct field or map key and compares the values with Natural.
func ByField[T any](name string) Comparator[T] {
	if name == "" {
		return Comparator[T]{}
	}
	return Comparator[T]{kind: KindField, field: name}
}

// Asc orders cmp.Ordered items ascending.
func Asc[T cmp.Ordered]() Comparator[T] {
	return By(cmp.Compare[T])
}

// Desc reverses c. Ties still keep their input order.
func Desc[T any](c Comparator[T]) Comparator[T] {
	c.desc = !c.desc
	return c
}

// Kind returns the variant tag, or 0 for an invalid Comparator.
func (c Comparator[T]) Kind() Kind { return c.kind }

// Field returns the field name of a KindField comparator.
func (c Comparator[T]) Field() string { return c.field }

// Valid reports whether the Comparator can be resolved.
func (c Comparator[T]) Valid() bool {
	switch c.kind {
	case KindFunc:
		return c.fn != nil
	case KindField:
		return c.field != ""
	default:
		return false
	}
}

// Resolve returns the comparison function for one recompute.
func (c Comparator[T]) Resolve() (func(a, b T) int, error) {
	var fn func(a, b T) int
	switch c.kind {
	case KindFunc:
		fn = c.fn
	case KindField:
		name := c.field
		fn = func(a, b T) int {
			return Natural(FieldOf(a, name), FieldOf(b, name))
		}
	default:
		return nil, fmt.Errorf("unresolvable comparator (kind %s)", c.kind)
	}
	if c.desc {
		asc := fn
		fn = func(a, b T) int { return asc(b, a) }
	}
	return fn, nil
}

func (c Comparator[T]) String() string {
	dir := "asc"
	if c.desc {
		dir = "desc"
	}
	if c.kind == KindField {
		return fmt.Sprintf("sort(field=%s, %s)", c.field, dir)
	}
	return fmt.Sprintf("sort(%s, %s)", c.kind, dir)
}

// Stable sorts items in place with fn, keeping equal items in input order.
func Stable[T any](items []T, fn func(a, b T) int) {
	slices.SortStableFunc(items, fn)
}

// FieldOf unwraps item and returns the value of its field or map key
// called name, unwrapping that value too. Struct fields are matched by
// exact name, then case-insensitively, then by json tag. It returns nil
// when the field does not exist.
func FieldOf(item any, name string) any {
	v := reflect.ValueOf(core.Unwrap(item))
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		f := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !f.IsValid() {
			return nil
		}
		return core.Unwrap(f.Interface())
	case reflect.Struct:
		f, ok := structField(v, name)
		if !ok || !f.CanInterface() {
			return nil
		}
		return core.Unwrap(f.Interface())
	default:
		return nil
	}
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	if f := v.FieldByName(name); f.IsValid() {
		return f, true
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if strings.EqualFold(sf.Name, name) || tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Natural is the default ordering for field values. Values of different
// families order nil, booleans, numbers, strings, times, then everything
// else. Within a family, booleans put false first, integers compare
// exactly, other numbers numerically, strings lexically, times
// chronologically, and anything else by its text rendering.
func Natural(a, b any) int {
	a, b = core.Unwrap(a), core.Unwrap(b)
	fa, fb := family(a), family(b)
	if fa != fb {
		return cmp.Compare(fa, fb)
	}

	switch fa {
	case familyNil:
		return 0
	case familyBool:
		x, y := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case familyNumber:
		return compareNumbers(reflect.ValueOf(a), reflect.ValueOf(b))
	case familyString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case familyTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	familyNil = iota
	familyBool
	familyNumber
	familyString
	familyTime
	familyOther
)

func family(v any) int {
	if v == nil {
		return familyNil
	}
	if _, ok := v.(time.Time); ok {
		return familyTime
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool:
		return familyBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return familyNumber
	case reflect.String:
		return familyString
	default:
		return familyOther
	}
}

// compareNumbers compares two numeric values, including named ones.
// Integers are compared without going through float64.
func compareNumbers(a, b reflect.Value) int {
	switch {
	case signed(a) && signed(b):
		return cmp.Compare(a.Int(), b.Int())
	case unsigned(a) && unsigned(b):
		return cmp.Compare(a.Uint(), b.Uint())
	case signed(a) && unsigned(b):
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	case unsigned(a) && signed(b):
		return -compareNumbers(b, a)
	default:
		return cmp.Compare(float(a), float(b))
	}
}

func signed(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func unsigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func float(v reflect.Value) float64 {
	switch {
	case signed(v):
		return float64(v.Int())
	case unsigned(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

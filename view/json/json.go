// Package json reads collections from JSON arrays and writes view content
// back as JSON.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lguimbarda/min-view/view/core"
)

// Decode reads a JSON array from r into a new collection.
func Decode[T any](r io.Reader) (*core.Collection[T], error) {
	items, err := decodeArray[T](r)
	if err != nil {
		return nil, err
	}
	return core.NewCollection(items...), nil
}

// Fill reads a JSON array from r and appends its elements to coll with a
// single Add.
func Fill[T any](coll *core.Collection[T], r io.Reader) (int, error) {
	items, err := decodeArray[T](r)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	return len(items), coll.Add(items...)
}

func decodeArray[T any](r io.Reader) ([]T, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json: read array: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("json: expected an array, got %v", tok)
	}

	var items []T
	for dec.More() {
		var value T
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("json: element %d: %w", len(items), err)
		}
		items = append(items, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json: close array: %w", err)
	}
	return items, nil
}

// Encode writes the current content of src to w as a JSON array. A view
// source is materialized first.
func Encode[T any](w io.Writer, src core.Source[T]) error {
	items := src.Items()
	if items == nil {
		items = []T{}
	}
	return json.NewEncoder(w).Encode(items)
}

// Sink returns a subscriber writing src's content to w after every
// recompute, one JSON array per line. Attach it with Subscribe on a view.
func Sink[T any](w io.Writer) func(core.Change[T]) error {
	enc := json.NewEncoder(w)
	return func(c core.Change[T]) error {
		if c.Event != core.Reset {
			return nil
		}
		items := c.Items
		if items == nil {
			items = []T{}
		}
		return enc.Encode(items)
	}
}

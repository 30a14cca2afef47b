package view

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is returned when a stage is given options it cannot
	// be built from. Use errors.As with *OptionsError for details.
	ErrInvalidOptions = errors.New("invalid operation options")

	// ErrDisposed is returned when a disposed view is read or extended.
	ErrDisposed = errors.New("view disposed")

	// ErrRecomputeLoop is returned when recomputes keep re-triggering each
	// other, typically a predicate that mutates its own source.
	ErrRecomputeLoop = errors.New("recompute did not settle")
)

// OptionsError describes options rejected at stage-creation time.
type OptionsError struct {
	Kind   Kind
	Value  any
	Reason string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("%s: %s given %T: %s", ErrInvalidOptions, e.Kind, e.Value, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidOptions) hold.
func (e *OptionsError) Unwrap() error { return ErrInvalidOptions }

func invalid(kind Kind, value any, reason string) error {
	return &OptionsError{Kind: kind, Value: value, Reason: reason}
}

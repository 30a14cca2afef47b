package core

import (
	"fmt"
	"runtime"
	"strings"
)

// internalFrames marks stack frames that belong to this module.
const internalFrames = "github.com/lguimbarda/min-view/view"

// ErrPanic wraps a recovered panic value as an error.
// This is used when a user-provided predicate or comparator panics during
// a recompute. It includes a cleaned-up stack trace that excludes internal
// min-view frames.
type ErrPanic struct {
	Value any
	Stack string // Cleaned stack trace
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// NewPanicError creates an ErrPanic from a recovered value with a cleaned
// stack trace.
func NewPanicError(recovered any) ErrPanic {
	return ErrPanic{
		Value: recovered,
		Stack: cleanStack(captureStack(4)), // skip: runtime.Callers, captureStack, NewPanicError, defer func
	}
}

// Recover runs fn and converts a panic into an ErrPanic error.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()
	return fn()
}

func captureStack(skip int) string {
	const maxFrames = 32
	var pcs [maxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

// cleanStack removes internal frames (function line plus its file:line)
// from a stack trace, keeping user code and the standard library.
func cleanStack(stack string) string {
	lines := strings.Split(stack, "\n")
	var result []string
	var skipNext bool

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, "\t") {
			if strings.Contains(line, internalFrames+"/") || strings.Contains(line, internalFrames+".") {
				skipNext = true
				continue
			}
			skipNext = false
		} else if skipNext {
			continue
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

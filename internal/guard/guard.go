// Package guard turns panics raised by loaded modules into ordinary errors so
// that a single misbehaving module cannot cross a load or dispatch boundary.
package guard

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// PanicError is returned by Run when fn panicked.
type PanicError struct {
	Value any
	stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// StackTrace returns the goroutine stack captured at recovery.
func (e *PanicError) StackTrace() string { return e.stack }

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Run calls fn and converts a panic into a *PanicError.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, stack: string(debug.Stack())}
		}
	}()
	return fn()
}

type stackTracer interface {
	StackTrace() string
}

// Stack returns the first stack trace found in err's chain, or "".
func Stack(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}

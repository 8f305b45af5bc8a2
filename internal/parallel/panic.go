package parallel

import (
	"fmt"
	"runtime"
)

// PanicError wraps a value recovered from a panicking worker together with
// the worker's stack trace. Spaces re-raise it on the launching goroutine.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the worker goroutine stack trace at the point of panic.
	Stack string
}

// NewPanicError captures the current goroutine stack. Call it from the
// deferred recover of a worker.
func NewPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

// Error returns the panic value followed by the worker stack.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in worker: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

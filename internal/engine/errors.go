package engine

import (
	"errors"
	"fmt"
)

// dependencyUnavailableError signals that the native runtime is missing or
// could not be loaded.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// runtimeError wraps a failure reported by the inference runtime itself.
type runtimeError struct{ err error }

func (e runtimeError) Error() string { return e.err.Error() }
func (e runtimeError) Unwrap() error { return e.err }

// ErrRuntime marks err as originating in the native runtime.
func ErrRuntime(err error) error {
	if err == nil {
		return nil
	}
	return runtimeError{err: err}
}

// IsRuntimeError reports whether err was raised by the native runtime.
func IsRuntimeError(err error) bool {
	var e runtimeError
	return errors.As(err, &e)
}

type unsupportedTypeError struct{ name string }

func (e unsupportedTypeError) Error() string { return "unsupported element type: " + e.name }

// ErrUnsupportedType reports an element type that cannot be used for host buffers.
func ErrUnsupportedType(name string) error { return unsupportedTypeError{name: name} }

// IsUnsupportedType reports whether err is an unsupported element type.
func IsUnsupportedType(err error) bool {
	var e unsupportedTypeError
	return errors.As(err, &e)
}

// shapeMismatchError is returned when the element count of a buffer does not
// equal the product of its shape, or the shape itself is invalid.
type shapeMismatchError struct {
	shape Shape
	count int64
	want  int64
	msg   string
}

func (e shapeMismatchError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("invalid shape %s: %s", e.shape, e.msg)
	}
	return fmt.Sprintf("shape %s requires %d elements, got %d", e.shape, e.want, e.count)
}

// IsShapeMismatch reports whether err is a shape/element-count mismatch.
func IsShapeMismatch(err error) bool {
	var e shapeMismatchError
	return errors.As(err, &e)
}

// ErrClosed is returned by operations on a destroyed value or closed session.
var ErrClosed = errors.New("engine: object already released")

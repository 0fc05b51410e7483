package bridge

import (
	"context"
	"errors"
	"fmt"

	"ortbridge/internal/engine"
	"ortbridge/internal/registry"
	"ortbridge/internal/valueconv"
	"ortbridge/pkg/types"
)

// Error codes reported in MethodError.Code.
const (
	CodeNullModelPath         = "NULL_MODEL_PATH"
	CodeModelNotFound         = "MODEL_NOT_FOUND"
	CodeInvalidSession        = "INVALID_SESSION"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeNullInputs            = "NULL_INPUTS"
	CodeInvalidOrtValue       = "INVALID_ORT_VALUE"
	CodeOrtValueNotFound      = "ORT_VALUE_NOT_FOUND"
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeUnsupportedType       = "UNSUPPORTED_TYPE"
	CodeShapeMismatch         = "SHAPE_MISMATCH"
	CodeUnsupportedDevice     = "UNSUPPORTED_DEVICE"
	CodeNonFiniteData         = "NON_FINITE_DATA"
	CodeTooBusy               = "TOO_BUSY"
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	CodeRunTerminated         = "RUN_TERMINATED"
	CodeCancelled             = "CANCELLED"
	CodeOrtError              = "ORT_ERROR"
	CodeGenericError          = "GENERIC_ERROR"

	// codeOK and codeNotImplemented only label metrics.
	codeOK             = "OK"
	codeNotImplemented = "NOT_IMPLEMENTED"
)

// argError reports a missing or malformed argument.
type argError struct {
	key     string
	msg     string
	missing bool
}

func (e argError) Error() string { return "argument " + e.key + ": " + e.msg }

func missingArg(key string) error { return argError{key: key, msg: "is required", missing: true} }

func badArg(key, format string, args ...any) error {
	return argError{key: key, msg: fmt.Sprintf(format, args...)}
}

// isMissingArg reports whether err is a missing-argument error.
func isMissingArg(err error) bool {
	var e argError
	return errors.As(err, &e) && e.missing
}

// codedError carries an explicit code chosen by a handler.
type codedError struct {
	code string
	err  error
}

func (e codedError) Error() string { return e.err.Error() }
func (e codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error { return codedError{code: code, err: err} }

func newError(code, format string, args ...any) error {
	return codedError{code: code, err: fmt.Errorf(format, args...)}
}

type panicError struct{ v any }

func (e panicError) Error() string { return fmt.Sprintf("panic: %v", e.v) }

// toMethodError maps an error to a stable code. Explicit codes win over
// classification of the wrapped error.
func toMethodError(err error) *types.MethodError {
	if err == nil {
		return nil
	}
	var me *types.MethodError
	if errors.As(err, &me) {
		return me
	}
	return &types.MethodError{Code: errorCode(err), Message: err.Error()}
}

func errorCode(err error) string {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	var ae argError
	switch {
	case errors.As(err, &ae):
		return CodeInvalidArgument
	case registry.IsSessionNotFound(err):
		return CodeSessionNotFound
	case registry.IsValueNotFound(err):
		return CodeOrtValueNotFound
	case registry.IsModelNotFound(err):
		return CodeModelNotFound
	case registry.IsTooBusy(err):
		return CodeTooBusy
	case registry.IsUnsupportedDevice(err):
		return CodeUnsupportedDevice
	case engine.IsUnsupportedType(err):
		return CodeUnsupportedType
	case engine.IsShapeMismatch(err):
		return CodeShapeMismatch
	case engine.IsDependencyUnavailable(err):
		return CodeDependencyUnavailable
	case valueconv.IsNonFinite(err):
		return CodeNonFiniteData
	case valueconv.IsInvalidData(err):
		return CodeInvalidArgument
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case engine.IsRuntimeError(err):
		return CodeOrtError
	default:
		return CodeGenericError
	}
}

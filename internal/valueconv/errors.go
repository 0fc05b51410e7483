package valueconv

import (
	"errors"
	"fmt"
)

// invalidDataError reports data that cannot be decoded into the requested type.
type invalidDataError struct{ msg string }

func (e invalidDataError) Error() string { return e.msg }

func invalidData(format string, args ...any) error {
	return invalidDataError{msg: fmt.Sprintf(format, args...)}
}

// IsInvalidData reports whether err describes malformed tensor data.
func IsInvalidData(err error) bool {
	var e invalidDataError
	return errors.As(err, &e)
}

// nonFiniteError is returned when list encoding meets NaN or Inf, which JSON
// cannot carry.
type nonFiniteError struct{ index int }

func (e nonFiniteError) Error() string {
	return fmt.Sprintf("non-finite value at index %d; request base64 encoding", e.index)
}

// IsNonFinite reports whether err is a non-finite list encoding failure.
func IsNonFinite(err error) bool {
	var e nonFiniteError
	return errors.As(err, &e)
}

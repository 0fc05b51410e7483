package registry

import "errors"

// tooBusyError signals queue timeout/overflow on a session.
type tooBusyError struct{ sessionID string }

func (e tooBusyError) Error() string { return "too busy: " + e.sessionID }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

type sessionNotFoundError struct{ id string }

func (e sessionNotFoundError) Error() string { return "session not found: " + e.id }

// ErrSessionNotFound returns an error for a stale or unknown session id.
func ErrSessionNotFound(id string) error { return sessionNotFoundError{id: id} }

// IsSessionNotFound reports whether err indicates a missing session id.
func IsSessionNotFound(err error) bool {
	var e sessionNotFoundError
	return errors.As(err, &e)
}

type valueNotFoundError struct{ id string }

func (e valueNotFoundError) Error() string { return "value not found: " + e.id }

// ErrValueNotFound returns an error for a stale or unknown value id.
func ErrValueNotFound(id string) error { return valueNotFoundError{id: id} }

// IsValueNotFound reports whether err indicates a missing value id.
func IsValueNotFound(err error) bool {
	var e valueNotFoundError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ ref string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.ref }

// ErrModelNotFound returns an error when a model reference resolves to no file.
func ErrModelNotFound(ref string) error { return modelNotFoundError{ref: ref} }

// IsModelNotFound reports whether the error indicates a missing model.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

type unsupportedDeviceError struct{ device string }

func (e unsupportedDeviceError) Error() string { return "unsupported device: " + e.device }

// IsUnsupportedDevice reports whether err names a device values cannot move to.
func IsUnsupportedDevice(err error) bool {
	var e unsupportedDeviceError
	return errors.As(err, &e)
}

// ErrClosed is returned after the registry has been torn down.
var ErrClosed = errors.New("registry closed")

// Package bridge implements the method channel: a Dispatcher that routes
// named calls with a loosely typed argument bag, and a Plugin that binds the
// session and tensor methods to the registries.
//
// Failures travel in-band as types.MethodError with a stable code such as
// SESSION_NOT_FOUND or SHAPE_MISMATCH. Unknown methods return a result with
// NotImplemented set.
package bridge

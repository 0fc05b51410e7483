// Package registry tracks the live native objects behind the bridge.
//
// Sessions and tensor values are addressed by opaque string ids. The session
// registry also applies per-session admission control: each session has a
// bounded queue and a bounded number of concurrent runs, and callers that
// cannot get a slot within MaxWait are rejected as too busy. Closing a
// session stops admission, waits for admitted runs to return and then
// destroys the native session exactly once.
package registry

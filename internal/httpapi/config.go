package httpapi

import "time"

// maxBodyBytes bounds POST /call bodies and /channel frames.
// Default 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// callTimeout bounds a single dispatched call. Zero means no additional
// timeout beyond server/connection timeouts.
var callTimeout time.Duration

// SetCallTimeout sets the per-call timeout (<= 0 disables).
func SetCallTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	callTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added and
// /channel only accepts same-origin upgrades.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
// Empty methods or headers fall back to what the API uses.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
}

// originAllowed reports whether a cross-origin /channel upgrade from origin
// is permitted by the CORS configuration.
func originAllowed(origin string) bool {
	if !corsEnabled {
		return false
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

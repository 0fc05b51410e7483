package types

// MethodCall is a single remote call sent over the channel.
type MethodCall struct {
	// Optional correlation id echoed back in the result.
	// example: 7
	ID string `json:"id,omitempty" example:"7"`
	// Method name.
	// example: createSession
	Method string `json:"method" example:"createSession"`
	// Loosely typed argument bag. Numbers arrive as float64 when decoded from JSON.
	Args map[string]any `json:"args,omitempty" swaggertype:"object"`
}

// MethodResult is the reply to a MethodCall. Exactly one of Result, Error or
// NotImplemented is meaningful.
type MethodResult struct {
	// Correlation id copied from the call.
	// example: 7
	ID string `json:"id,omitempty" example:"7"`
	// Method result; null for methods that return nothing.
	Result any `json:"result" swaggertype:"object"`
	// Typed error when the call failed.
	Error *MethodError `json:"error,omitempty"`
	// True when no handler is registered for the method.
	// example: false
	NotImplemented bool `json:"notImplemented,omitempty" example:"false"`
}

// MethodError is a typed failure carried in-band in a MethodResult.
type MethodError struct {
	// Stable error code.
	// example: SESSION_NOT_FOUND
	Code string `json:"code" example:"SESSION_NOT_FOUND"`
	// Human-readable message.
	// example: session not found: 5f0c...
	Message string `json:"message" example:"session not found: 5f0c..."`
	// Optional structured details.
	Details any `json:"details,omitempty" swaggertype:"object"`
}

func (e *MethodError) Error() string { return e.Code + ": " + e.Message }

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SessionStatus summarizes a live session for /status.
type SessionStatus struct {
	// Opaque session identifier.
	// example: 0b7e3a52-6a43-4c1e-9d0f-0e8f4c9a1c11
	SessionID string `json:"session_id" example:"0b7e3a52-6a43-4c1e-9d0f-0e8f4c9a1c11"`
	// Absolute path of the model backing the session.
	// example: /home/user/models/onnx/mnist.onnx
	ModelPath string `json:"model_path" example:"/home/user/models/onnx/mnist.onnx"`
	// Lifecycle state (ready, draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Creation time (unix seconds).
	// example: 1700000000
	CreatedUnix int64 `json:"created_unix" example:"1700000000"`
	// Last time a run was admitted (unix seconds, 0 if never).
	// example: 1700000100
	LastUsed int64 `json:"last_used_unix" example:"1700000100"`
	// Completed runs.
	// example: 12
	Runs uint64 `json:"runs" example:"12"`
	// Calls waiting for or holding a run slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Runs currently executing.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued runs before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine backend name.
	// example: onnxruntime
	Engine string `json:"engine" example:"onnxruntime"`
	// Engine version string.
	// example: 1.22.0
	EngineVersion string `json:"engine_version" example:"1.22.0"`
	// Execution providers available to new sessions.
	Providers []string `json:"providers"`
	// Whether the bridge accepts calls.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Live sessions.
	Sessions []SessionStatus `json:"sessions"`
	// Number of live tensor values.
	// example: 4
	LiveValues int `json:"live_values" example:"4"`
	// Total calls handled since start.
	// example: 120
	CallsTotal uint64 `json:"calls_total" example:"120"`
	// Runs rejected by admission control.
	// example: 0
	TooBusyTotal uint64 `json:"too_busy_total" example:"0"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

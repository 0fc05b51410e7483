package engine

import "context"

// Engine abstracts the inference runtime wrapped by the bridge.
// Concrete implementations (e.g., ONNX Runtime) should satisfy this interface.
type Engine interface {
	// Name identifies the backend (e.g., "onnxruntime").
	Name() string
	// Version reports the runtime library version.
	Version() string
	// Providers lists the execution providers sessions may request.
	Providers() []string
	// NewSession loads the model at path.
	NewSession(path string, opts SessionOptions) (Session, error)
	// NewValue creates a tensor value holding a copy of buf.
	NewValue(buf Buffer) (Value, error)
	// Close releases process-wide runtime state.
	Close() error
}

// Session is a loaded model ready to run inference.
type Session interface {
	Inputs() []NodeInfo
	Outputs() []NodeInfo
	Metadata() (ModelMetadata, error)
	// Run executes the model. outputNames selects a subset of outputs; nil
	// requests all of them. Returned values are owned by the caller.
	Run(ctx context.Context, inputs map[string]Value, outputNames []string, opts RunOptions) (map[string]Value, error)
	Close() error
}

// Value is a tensor owned by the runtime.
type Value interface {
	Type() ElementType
	Shape() Shape
	// Buffer returns a host copy of the tensor contents.
	Buffer() (Buffer, error)
	Device() string
	Destroy() error
}

// NodeInfo describes a model input or output.
type NodeInfo struct {
	Name     string
	Shape    Shape
	Type     ElementType
	IsTensor bool
}

// ModelMetadata mirrors the runtime's model metadata.
type ModelMetadata struct {
	ProducerName string
	GraphName    string
	Domain       string
	Description  string
	Version      int64
	Custom       map[string]string
}

// SessionOptions tune session construction. Zero values keep runtime defaults.
type SessionOptions struct {
	IntraOpNumThreads      int
	InterOpNumThreads      int
	GraphOptimizationLevel string // disable_all, basic, extended, all
	Providers              []string
	DeviceID               int
	EnableCPUMemArena      *bool
	EnableMemPattern       *bool
}

// RunOptions are passed through to a single run.
type RunOptions struct {
	LogSeverityLevel  int
	LogVerbosityLevel int
	Terminate         bool
}

// Config selects and configures the runtime backend.
type Config struct {
	// LibraryPath points at the shared runtime library; empty uses the
	// platform default search path.
	LibraryPath string
	// Providers restricts the execution providers offered to sessions.
	// CPU is always available.
	Providers []string
}

// DeviceCPU is the only device host memory values live on.
const DeviceCPU = "cpu"

func withCPU(providers []string) []string {
	out := []string{"CPU"}
	for _, p := range providers {
		if normalizeProvider(p) == "CPU" {
			continue
		}
		out = append(out, normalizeProvider(p))
	}
	return out
}

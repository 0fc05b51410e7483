//go:build !onnx

package engine

// hostEngine is used when the binary is built without ONNX Runtime. Tensor
// values work in Go memory; sessions are unavailable.
type hostEngine struct{}

// New returns the host engine. Build with -tags=onnx for the native runtime.
func New(cfg Config) (Engine, error) { return hostEngine{}, nil }

func (hostEngine) Name() string        { return "host" }
func (hostEngine) Version() string     { return "none" }
func (hostEngine) Providers() []string { return withCPU(nil) }
func (hostEngine) Close() error        { return nil }

func (hostEngine) NewSession(path string, opts SessionOptions) (Session, error) {
	return nil, ErrDependencyUnavailable("onnxruntime not available: rebuild with -tags=onnx")
}

func (hostEngine) NewValue(buf Buffer) (Value, error) { return NewHostValue(buf) }

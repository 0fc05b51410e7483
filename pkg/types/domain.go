package types

// Model is a model file discovered in the models directory.
type Model struct {
	// Stable identifier for the model (file name).
	// example: mnist.onnx
	ID string `json:"id" example:"mnist.onnx"`
	// Human-friendly name (file name without extension).
	// example: mnist
	Name string `json:"name" example:"mnist"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/onnx/mnist.onnx
	Path string `json:"path" example:"/home/user/models/onnx/mnist.onnx"`
	// Serialization format: onnx or ort.
	// example: onnx
	Format string `json:"format" example:"onnx"`
	// File size in bytes.
	// example: 26454
	SizeBytes int64 `json:"size_bytes,omitempty" example:"26454"`
}

// SessionInfo is returned by createSession.
type SessionInfo struct {
	SessionID   string   `json:"sessionId"`
	InputNames  []string `json:"inputNames"`
	OutputNames []string `json:"outputNames"`
}

// NodeInfo describes one model input or output.
type NodeInfo struct {
	Name  string  `json:"name"`
	Shape []int64 `json:"shape"`
	Type  string  `json:"type"`
}

// ModelMetadata is returned by getMetadata.
type ModelMetadata struct {
	ProducerName      string            `json:"producerName"`
	GraphName         string            `json:"graphName"`
	Domain            string            `json:"domain"`
	Description       string            `json:"description"`
	Version           int64             `json:"version"`
	CustomMetadataMap map[string]string `json:"customMetadataMap"`
}

// ValueInfo identifies a live tensor value.
type ValueInfo struct {
	ValueID  string  `json:"valueId"`
	DataType string  `json:"dataType"`
	Shape    []int64 `json:"shape"`
	Device   string  `json:"device"`
}

// ValueData is returned by getOrtValueData. Data is a flat list unless
// Encoding is base64, in which case it is a little-endian packed buffer.
type ValueData struct {
	Data     any     `json:"data"`
	Shape    []int64 `json:"shape"`
	DataType string  `json:"dataType"`
	Encoding string  `json:"encoding"`
}

// RunResult is returned by runInference. OutputNames preserves model order.
type RunResult struct {
	Outputs     map[string]ValueInfo `json:"outputs"`
	OutputNames []string             `json:"outputNames"`
}

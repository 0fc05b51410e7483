package engine

import (
	"strings"
	"sync"
)

// hostValue is a tensor held in Go memory.
type hostValue struct {
	mu        sync.Mutex
	buf       Buffer
	destroyed bool
}

// NewHostValue validates buf and returns a Value holding a private copy.
func NewHostValue(buf Buffer) (Value, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return &hostValue{buf: buf.Clone()}, nil
}

func (v *hostValue) Type() ElementType { return v.buf.Type }
func (v *hostValue) Shape() Shape      { return v.buf.Shape.Clone() }
func (v *hostValue) Device() string    { return DeviceCPU }

func (v *hostValue) Buffer() (Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return Buffer{}, ErrClosed
	}
	return v.buf.Clone(), nil
}

func (v *hostValue) Destroy() error {
	v.mu.Lock()
	v.destroyed = true
	v.buf.Data = nil
	v.mu.Unlock()
	return nil
}

var providerAliases = map[string]string{
	"cpu":      "CPU",
	"cuda":     "CUDA",
	"coreml":   "CoreML",
	"directml": "DirectML",
	"dml":      "DirectML",
	"openvino": "OpenVINO",
}

// normalizeProvider maps user spellings ("cuda", "CUDAExecutionProvider")
// onto canonical provider names.
func normalizeProvider(p string) string {
	k := strings.ToLower(strings.TrimSpace(p))
	k = strings.TrimSuffix(k, "executionprovider")
	if v, ok := providerAliases[k]; ok {
		return v
	}
	return strings.TrimSpace(p)
}

// Package engine abstracts the inference runtime behind the bridge.
//
// The default build uses a host engine that keeps tensors in Go memory and
// cannot load models. Building with -tags=onnx links ONNX Runtime through
// github.com/yalue/onnxruntime_go; the shared library location can be set
// with Config.LibraryPath.
package engine

//go:build !onnx

package engine

import "testing"

func TestHostEngine(t *testing.T) {
	eng, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if eng.Name() != "host" {
		t.Fatalf("name=%s", eng.Name())
	}
	if _, err := eng.NewSession("model.onnx", SessionOptions{}); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	v, err := eng.NewValue(Buffer{Type: Uint8, Shape: Shape{2}, Data: []uint8{1, 2}})
	if err != nil {
		t.Fatalf("new value: %v", err)
	}
	if v.Type() != Uint8 {
		t.Fatalf("type=%v", v.Type())
	}
	if p := eng.Providers(); len(p) != 1 || p[0] != "CPU" {
		t.Fatalf("providers=%v", p)
	}
}

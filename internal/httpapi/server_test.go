package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ortbridge/pkg/types"
)

type mockService struct {
	models []types.Model
	status types.StatusResponse
	ready  bool

	mu    sync.Mutex
	calls []types.MethodCall

	// blocked and ended are signalled by the "block" method, which waits
	// for its context to end.
	blocked chan struct{}
	ended   chan error
}

func (m *mockService) ListModels() []types.Model    { return append([]types.Model(nil), m.models...) }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func (m *mockService) Dispatch(ctx context.Context, call types.MethodCall) types.MethodResult {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
	res := types.MethodResult{ID: call.ID}
	switch call.Method {
	case "nope":
		res.NotImplemented = true
	case "busy":
		res.Error = &types.MethodError{Code: "TOO_BUSY", Message: "too busy: s1"}
	case "fail":
		res.Error = &types.MethodError{Code: "SESSION_NOT_FOUND", Message: "session not found: s1"}
	case "block":
		m.blocked <- struct{}{}
		select {
		case <-ctx.Done():
			m.ended <- ctx.Err()
		case <-time.After(5 * time.Second):
			m.ended <- nil
		}
		res.Error = &types.MethodError{Code: "CANCELLED", Message: "cancelled"}
	default:
		res.Result = map[string]any{"method": call.Method, "args": call.Args}
	}
	return res
}

func (m *mockService) lastCall() types.MethodCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func postCall(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/call", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "a.onnx"}, {ID: "b.ort"}}}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models len=%d", len(body.Models))
	}
}

func TestModelsHandler_EmptyIsList(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if !strings.Contains(w.Body.String(), `"models":[]`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Engine: "onnxruntime", LiveValues: 3}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Engine != "onnxruntime" || body.LiveValues != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "closed") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCallReturnsEnvelope(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := postCall(t, r, `{"id":"7","method":"createOrtValue","args":{"shape":[1,3],"data":[1.5,2,3]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res types.MethodResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.ID != "7" || res.Error != nil || res.Result == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	call := svc.lastCall()
	shape, ok := call.Args["shape"].([]any)
	if !ok || len(shape) != 2 {
		t.Fatalf("shape not decoded as list: %#v", call.Args["shape"])
	}
	if _, ok := shape[0].(interface{ Int64() (int64, error) }); !ok {
		t.Fatalf("numbers should be decoded as json.Number, got %T", shape[0])
	}
}

func TestCallErrorsAreInBand(t *testing.T) {
	r := NewMux(&mockService{})
	w := postCall(t, r, `{"id":"1","method":"fail"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var res types.MethodResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.Error == nil || res.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("unexpected result: %+v", res)
	}

	w = postCall(t, r, `{"method":"nope"}`)
	if !strings.Contains(w.Body.String(), `"notImplemented":true`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestCallBadJSON(t *testing.T) {
	w := postCall(t, NewMux(&mockService{}), "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != http.StatusBadRequest {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
}

func TestCallMethodRequired(t *testing.T) {
	w := postCall(t, NewMux(&mockService{}), `{"method":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing method, got %d", w.Code)
	}
}

func TestCallUnsupportedMediaType(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/call", bytes.NewBufferString(`{"method":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCallBodyTooLarge(t *testing.T) {
	SetMaxBodyBytes(0)
	big := make([]byte, (1<<20)+10)
	for i := range big {
		big[i] = 'a'
	}
	w := postCall(t, NewMux(&mockService{}), string(big))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestCallGetNotAllowed(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/call", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	SetCORSOptions(true, []string{"http://app.local"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/call", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}

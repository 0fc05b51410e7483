package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"ortbridge/internal/bridge"
	"ortbridge/internal/engine/enginetest"
	"ortbridge/internal/httpapi"
	"ortbridge/internal/registry"
	"ortbridge/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// createTempModelsDir creates a temporary directory populated with placeholder
// model files, registers each with eng, and returns the directory.
func createTempModelsDir(t *testing.T, eng *enginetest.Engine, models map[string]*enginetest.Model) string {
	t.Helper()
	dir := t.TempDir()
	for name, m := range models {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("onnx"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
		eng.AddModel(p, m)
	}
	return dir
}

// newServerForDir wires the HTTP mux to a plugin over modelsDir.
func newServerForDir(t *testing.T, eng *enginetest.Engine, modelsDir string, cfg registry.Config) (*httptest.Server, *bridge.Plugin) {
	t.Helper()
	models, err := registry.NewModels(modelsDir)
	if err != nil {
		t.Fatalf("scan models: %v", err)
	}
	p, err := bridge.NewPlugin(bridge.Config{Engine: eng, Models: models, Registry: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new plugin: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(p))
	t.Cleanup(func() {
		srv.Close()
		_ = p.Close()
	})
	return srv, p
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

// call POSTs one method call and returns the decoded envelope.
func call(t *testing.T, base, method string, args map[string]any) types.MethodResult {
	t.Helper()
	body, err := json.Marshal(types.MethodCall{ID: method, Method: method, Args: args})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, base+"/call", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s: status %d: %s", method, resp.StatusCode, b)
	}
	var res types.MethodResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

// mustCall fails the test on a method error and decodes the result into out.
func mustCall(t *testing.T, base, method string, args map[string]any, out any) {
	t.Helper()
	res := call(t, base, method, args)
	if res.Error != nil {
		t.Fatalf("%s: %s: %s", method, res.Error.Code, res.Error.Message)
	}
	if out == nil {
		return
	}
	b, err := json.Marshal(res.Result)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("%s: decode result: %v", method, err)
	}
}

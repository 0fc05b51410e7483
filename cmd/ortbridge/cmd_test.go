package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortbridge/pkg/types"
)

func TestCallMethod_PostsEnvelope(t *testing.T) {
	var got types.MethodCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"result":"Linux 6.1"}`))
	}))
	defer srv.Close()

	res, err := callMethod(context.Background(), srv.Client(), srv.URL+"/", "getPlatformVersion", `{"x":1}`)
	require.NoError(t, err)
	assert.Equal(t, "getPlatformVersion", got.Method)
	assert.Contains(t, got.Args, "x")
	assert.Equal(t, "Linux 6.1", res.Result)
	assert.Nil(t, res.Error)
}

func TestCallMethod_Errors(t *testing.T) {
	_, err := callMethod(context.Background(), http.DefaultClient, "http://127.0.0.1:1", "m", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--args")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnsupportedMediaType)
	}))
	defer srv.Close()
	_, err = callMethod(context.Background(), srv.Client(), srv.URL, "m", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 415")
}

func TestCallCmd_ReturnsMethodError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null,"error":{"code":"SESSION_NOT_FOUND","message":"session not found: x"}}`))
	}))
	defer srv.Close()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"call", "closeSession", "--addr", srv.URL, "--timeout", time.Second.String()})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_NOT_FOUND")
	assert.Contains(t, out.String(), "session not found")
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "ortbridge dev\n", out.String())
}

func TestServeFlags_ResolveLayers(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("addr: :9000\nmodels_dir: /srv/models\nmax_wait: 2s\n"), 0o644))

	f := &serveFlags{configPath: p, addr: ":9100", providers: "cuda, tensorrt"}
	cfg, err := f.resolve()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "/srv/models", cfg.ModelsDir)
	assert.Equal(t, 2*time.Second, cfg.MaxWait.Std())
	assert.Equal(t, []string{"cuda", "tensorrt"}, cfg.Providers)
	assert.Equal(t, 32, cfg.MaxQueueDepth)

	f = &serveFlags{logFormat: "xml"}
	_, err = f.resolve()
	require.Error(t, err)
}

func TestEnvStr(t *testing.T) {
	t.Setenv("ORTBRIDGE_TEST_ENV", "  v ")
	assert.Equal(t, "v", envStr("ORTBRIDGE_TEST_ENV", "d"))
	assert.Equal(t, "d", envStr("ORTBRIDGE_TEST_UNSET", "d"))
	assert.True(t, strings.HasPrefix(newRootCmd().Use, "ortbridge"))
}

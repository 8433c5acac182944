package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthRoute(t *testing.T) {
	h := New(Options{Version: "test"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "healthy")
}

func TestWelcomeRoute(t *testing.T) {
	h := New(Options{Version: "1.0.0"})

	req := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "1.0.0")
}

func TestUnknownRoute404(t *testing.T) {
	h := New(Options{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRPCSniff_ContentTypePrefix(t *testing.T) {
	called := false
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := New(Options{RPC: rpc})

	req := httptest.NewRequest(http.MethodPost, "/anything", nil)
	req.Header.Set("Content-Type", "application/grpc+proto")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.True(t, called, "RPC sniff should route application/grpc content-type to the RPC handler regardless of path")
}

func TestRPCSniff_HTTP2NoContentType(t *testing.T) {
	called := false
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := New(Options{RPC: rpc})

	req := httptest.NewRequest(http.MethodPost, "/anything", nil)
	req.ProtoMajor = 2
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.True(t, called)
}

func TestNonRPCPlainHTTPFallsThroughToMux(t *testing.T) {
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Fatal("should not reach RPC handler") })
	h := New(Options{RPC: rpc})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/prescription-api/config"
)

type fakeHTTPHandler struct {
	calls map[string]int
}

func newFakeHTTPHandler() *fakeHTTPHandler {
	return &fakeHTTPHandler{calls: make(map[string]int)}
}

func (f *fakeHTTPHandler) AnalyzePrescription(w http.ResponseWriter, r *http.Request) {
	f.calls["analyze"]++
	w.WriteHeader(http.StatusOK)
}

func (f *fakeHTTPHandler) QueryMedicines(w http.ResponseWriter, r *http.Request) {
	f.calls["query "+r.Method]++
	w.WriteHeader(http.StatusOK)
}

func (f *fakeHTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	f.calls["health"]++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1024,
		MaxHeaderSize:  4096,
		RequestTimeout: time.Second,
	}
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestNewServer(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	if s.server.Addr != "127.0.0.1:0" {
		t.Errorf("Expected address 127.0.0.1:0, got %s", s.server.Addr)
	}
	if s.server.WriteTimeout <= time.Second {
		t.Errorf("Write timeout %v should exceed the request timeout", s.server.WriteTimeout)
	}
}

func TestServerRoutes(t *testing.T) {
	fake := newFakeHTTPHandler()
	s := NewServer(testConfig(), fake)

	tests := []struct {
		method   string
		path     string
		status   int
		callName string
	}{
		{http.MethodPost, PathAnalyze, http.StatusOK, "analyze"},
		{http.MethodGet, PathQuery + "?names=Aspirin", http.StatusOK, "query GET"},
		{http.MethodPost, PathQuery, http.StatusOK, "query POST"},
		{http.MethodGet, PathHealth, http.StatusOK, "health"},
		{http.MethodGet, PathAnalyze, http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/v1/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.0.2.10:1234"
			rr := serve(s, req)

			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rr.Code)
			}
			if tt.callName != "" && fake.calls[tt.callName] == 0 {
				t.Errorf("Expected handler %q to be called", tt.callName)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	rr := serve(s, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "rate_limiter_buckets_total") {
		t.Error("Metrics output should contain rate_limiter_buckets_total")
	}
}

func TestRedirectSlashes(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	rr := serve(s, httptest.NewRequest(http.MethodGet, PathHealth+"/", nil))
	if rr.Code != http.StatusMovedPermanently {
		t.Errorf("Expected status 301, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	req := httptest.NewRequest(http.MethodOptions, PathAnalyze, nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := serve(s, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Expected POST to be allowed, got %q", got)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
	// Stop is idempotent
	s.rateLimiter.Stop()
}

func TestJSONResponsesAreCompressed(t *testing.T) {
	s := NewServer(testConfig(), newFakeHTTPHandler())

	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := serve(s, req)

	if got := rr.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Expected gzip encoding, got %q", got)
	}
}

package forwarder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

func TestForwardRoundTripsJSONBody(t *testing.T) {
	var gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	fw, err := New(upstream.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := fw.Forward(context.Background(), recordmodel.RequestRecord{
		Method: "GET", Path: "/thing",
	})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("Status = %d, want 201", resp.Status)
	}
	if resp.Body == nil || resp.Body.IsAbsent() {
		t.Fatal("Body is absent, want a JSON body")
	}
	m, ok := resp.Body.JSON.(map[string]interface{})
	if !ok || m["ok"] != true {
		t.Errorf("Body.JSON = %v", resp.Body.JSON)
	}
	if gotHost == "" {
		t.Error("upstream never saw a Host header")
	}
}

func TestForwardEmptyBodyResponseIsAbsent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	fw, err := New(upstream.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := fw.Forward(context.Background(), recordmodel.RequestRecord{Method: "DELETE", Path: "/x"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if resp.Body != nil {
		t.Errorf("Body = %+v, want nil pointer for an absent response body", resp.Body)
	}
}

func TestForwardStripsHopByHopResponseHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		w.Header().Set("X-Keep-Me", "yes")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	fw, err := New(upstream.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := fw.Forward(context.Background(), recordmodel.RequestRecord{Method: "GET", Path: "/x"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if _, ok := resp.Headers["transfer-encoding"]; ok {
		t.Error("transfer-encoding should be stripped")
	}
	if resp.Headers["x-keep-me"] != "yes" {
		t.Errorf("x-keep-me = %q, want yes", resp.Headers["x-keep-me"])
	}
}

func TestForwardConnectError(t *testing.T) {
	fw, err := New("http://127.0.0.1:1", 2*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = fw.Forward(context.Background(), recordmodel.RequestRecord{Method: "GET", Path: "/x"})
	if err == nil {
		t.Fatal("Forward() to an unreachable port succeeded, want a ConnectError")
	}
	if _, ok := err.(*ConnectError); !ok {
		t.Errorf("err = %T, want *ConnectError", err)
	}
}

func TestForwardTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	fw, err := New(upstream.URL, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = fw.Forward(context.Background(), recordmodel.RequestRecord{Method: "GET", Path: "/slow"})
	if err == nil {
		t.Fatal("Forward() against a slow upstream succeeded, want a TimeoutError")
	}
	if _, ok := err.(*TimeoutError); !ok {
		t.Errorf("err = %T, want *TimeoutError", err)
	}
}

func TestBaseURL(t *testing.T) {
	fw, err := New("http://example.com/api", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := fw.BaseURL(); got != "http://example.com/api" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct{ base, reqPath, want string }{
		{"http://x/api", "/users", "http://x/api/users"},
		{"http://x/api/", "/users", "http://x/api/users"},
		{"http://x/api", "", "http://x/api"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.base, tt.reqPath); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.base, tt.reqPath, got, tt.want)
		}
	}
}

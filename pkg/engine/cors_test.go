package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubMatcher struct{ has bool }

func (s stubMatcher) HasCustomRoute(method, path string) bool { return s.has }

func TestCORSDisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mw := newCORSMiddleware(next, CORSConfig{Enabled: false}, stubMatcher{})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disabled CORS middleware must not set CORS headers")
	}
}

func TestCORSAllowAnyOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mw := newCORSMiddleware(next, CORSConfig{Enabled: true}, stubMatcher{})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://anywhere.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the echoed origin", got)
	}
}

func TestCORSRejectsDisallowedOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mw := newCORSMiddleware(next, CORSConfig{Enabled: true, Origins: []string{"http://allowed.example"}}, stubMatcher{})

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://not-allowed.example")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for a disallowed preflight origin", rec.Code)
	}
}

func TestCORSPreflightRespondsDirectly(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })
	mw := newCORSMiddleware(next, CORSConfig{Enabled: true}, stubMatcher{has: false})

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if nextCalled {
		t.Error("OPTIONS preflight should be answered by the middleware, not passed through")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCORSDefersToCustomOptionsRoute(t *testing.T) {
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })
	mw := newCORSMiddleware(next, CORSConfig{Enabled: true}, stubMatcher{has: true})

	req := httptest.NewRequest("OPTIONS", "/custom", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if !nextCalled {
		t.Error("a registered custom OPTIONS route must take precedence over the CORS preflight responder")
	}
}

package engine

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig governs the preflight/allow-list middleware wrapped around the
// dispatcher.
type CORSConfig struct {
	Enabled bool
	Origins []string // empty means "allow any origin"
}

func (c CORSConfig) allowOriginValue(origin string) string {
	if origin == "" {
		return ""
	}
	if len(c.Origins) == 0 {
		return origin
	}
	for _, o := range c.Origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// optionsMatcher lets the CORS layer defer to a user-defined OPTIONS custom
// route instead of answering the preflight itself.
type optionsMatcher interface {
	HasCustomRoute(method, path string) bool
}

type corsMiddleware struct {
	next    http.Handler
	cfg     CORSConfig
	matcher optionsMatcher
}

func newCORSMiddleware(next http.Handler, cfg CORSConfig, matcher optionsMatcher) *corsMiddleware {
	return &corsMiddleware{next: next, cfg: cfg, matcher: matcher}
}

func (m *corsMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !m.cfg.Enabled {
		m.next.ServeHTTP(w, r)
		return
	}

	origin := r.Header.Get("Origin")
	allowOrigin := m.cfg.allowOriginValue(origin)

	if allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(86400))
	}

	if r.Method == http.MethodOptions {
		if m.matcher != nil && m.matcher.HasCustomRoute(r.Method, r.URL.Path) {
			m.next.ServeHTTP(w, r)
			return
		}
		if allowOrigin != "" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusForbidden)
		}
		return
	}

	m.next.ServeHTTP(w, r)
}

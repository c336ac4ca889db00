// Package routes lets callers register custom handlers that serve a
// response directly, bypassing replay storage and upstream forwarding
// entirely when they match.
package routes

import (
	"strings"
	"sync"

	"github.com/egehanasal/apidouble/internal/pathpattern"
	"github.com/egehanasal/apidouble/pkg/bodyval"
)

// Request is what a custom route handler receives.
type Request struct {
	Params  map[string]string
	Query   map[string]string
	Body    bodyval.Value
	Headers map[string]string
}

// Response is what a custom route handler returns. A zero Status means
// "200 OK", so handlers that don't care about the status code can leave it
// unset.
type Response struct {
	Status  int
	Headers map[string]string
	Body    bodyval.Value
}

// HandlerFunc serves one custom route.
type HandlerFunc func(Request) Response

type route struct {
	method  string
	pattern *pathpattern.Pattern
	handler HandlerFunc
}

// Registry holds custom routes, matched with priority over any mode
// default (replay/forward) behavior.
type Registry struct {
	mu     sync.RWMutex
	routes []route
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a route and returns the Registry so calls can be chained:
//
//	reg.Register("GET", "/healthz", h1).Register("POST", "/users/:id", h2)
func (r *Registry) Register(method, path string, handler HandlerFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{
		method:  method,
		pattern: pathpattern.Compile(path),
		handler: handler,
	})
	return r
}

// Match returns the first registered route whose method and path pattern
// match, along with the captured path parameters.
func (r *Registry) Match(method, path string) (HandlerFunc, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if rt.method != "" && rt.method != "*" && !strings.EqualFold(rt.method, method) {
			continue
		}
		if ok, params := rt.pattern.Match(path); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

// Invoke runs handler and normalizes its Response, defaulting a zero
// status to 200.
func Invoke(handler HandlerFunc, req Request) Response {
	resp := handler(req)
	if resp.Status == 0 {
		resp.Status = 200
	}
	return resp
}

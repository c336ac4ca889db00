// Package intercept holds ordered rules that can rewrite a response before
// it reaches the client (or is persisted), matched by method and path
// pattern and ranked by priority.
package intercept

import (
	"context"
	"strings"
	"sync"

	"github.com/egehanasal/apidouble/internal/pathpattern"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// RequestContext is what a Handler sees about the request that produced
// the response it's rewriting.
type RequestContext struct {
	Request *recordmodel.RequestRecord
	Params  map[string]string
	Query   map[string]string
}

// Handler transforms a response. It may return an error to signal that the
// transformation itself failed; callers treat that as leaving the response
// unchanged.
type Handler func(ctx context.Context, resp recordmodel.ResponseRecord, rc RequestContext) (recordmodel.ResponseRecord, error)

// Rule is one entry in the registry.
type Rule struct {
	Name     string
	Enabled  bool
	Method   string // "*" or empty matches any method
	Path     string // pathpattern syntax
	Priority int
	Handler  Handler
}

type compiledRule struct {
	rule    Rule
	pattern *pathpattern.Pattern
}

// Registry holds the ordered rule set. Registration order only matters as
// the stable-sort tiebreaker when two rules share a priority.
type Registry struct {
	mu    sync.RWMutex
	rules []compiledRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a rule, compiling its path pattern.
func (r *Registry) Add(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, compiledRule{rule: rule, pattern: pathpattern.Compile(rule.Path)})
}

// Match finds the highest-priority enabled rule whose method and path
// pattern match, stable on ties (first-registered-of-equal-priority wins).
// It returns the rule together with any path captures.
func (r *Registry) Match(method, path string) (*Rule, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *compiledRule
	var bestCaptures map[string]string

	for idx := range r.rules {
		cr := &r.rules[idx]
		if !cr.rule.Enabled {
			continue
		}
		if cr.rule.Method != "" && cr.rule.Method != "*" && !strings.EqualFold(cr.rule.Method, method) {
			continue
		}
		ok, captures := cr.pattern.Match(path)
		if !ok {
			continue
		}
		if best == nil || cr.rule.Priority > best.rule.Priority {
			best = cr
			bestCaptures = captures
		}
	}

	if best == nil {
		return nil, nil, false
	}
	rule := best.rule
	return &rule, bestCaptures, true
}

// Apply resolves and invokes the best matching rule's handler, returning
// the response unchanged when nothing matches.
func (r *Registry) Apply(ctx context.Context, method, path string, resp recordmodel.ResponseRecord, req *recordmodel.RequestRecord, query map[string]string) (recordmodel.ResponseRecord, error) {
	rule, params, ok := r.Match(method, path)
	if !ok {
		return resp, nil
	}
	rc := RequestContext{Request: req, Params: params, Query: query}
	return rule.Handler(ctx, resp, rc)
}

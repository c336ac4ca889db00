package intercept

import (
	"context"
	"testing"

	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

func passthrough(_ context.Context, resp recordmodel.ResponseRecord, _ RequestContext) (recordmodel.ResponseRecord, error) {
	return resp, nil
}

func TestMatchHighestPriorityWins(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Rule{Name: "low", Enabled: true, Path: "/users/*", Priority: 1, Handler: passthrough})
	reg.Add(Rule{Name: "high", Enabled: true, Path: "/users/*", Priority: 10, Handler: passthrough})

	rule, _, ok := reg.Match("GET", "/users/1")
	if !ok {
		t.Fatal("Match() = false, want true")
	}
	if rule.Name != "high" {
		t.Errorf("Match() picked %q, want %q", rule.Name, "high")
	}
}

func TestMatchStableOnEqualPriority(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Rule{Name: "first", Enabled: true, Path: "/x", Priority: 5, Handler: passthrough})
	reg.Add(Rule{Name: "second", Enabled: true, Path: "/x", Priority: 5, Handler: passthrough})

	rule, _, ok := reg.Match("GET", "/x")
	if !ok || rule.Name != "first" {
		t.Errorf("Match() = %v (ok=%v), want %q first-registered", rule, ok, "first")
	}
}

func TestMatchSkipsDisabledRules(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Rule{Name: "disabled", Enabled: false, Path: "*", Priority: 100, Handler: passthrough})
	reg.Add(Rule{Name: "active", Enabled: true, Path: "*", Priority: 1, Handler: passthrough})

	rule, _, ok := reg.Match("GET", "/anything")
	if !ok || rule.Name != "active" {
		t.Errorf("Match() = %v (ok=%v), want the only enabled rule", rule, ok)
	}
}

func TestMatchMethodFilter(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Rule{Name: "posts-only", Enabled: true, Method: "POST", Path: "/items", Handler: passthrough})

	if _, _, ok := reg.Match("GET", "/items"); ok {
		t.Error("Match(GET) should not match a POST-only rule")
	}
	if _, _, ok := reg.Match("POST", "/items"); !ok {
		t.Error("Match(POST) should match a POST-only rule")
	}
}

func TestApplyInvokesHandlerWithCaptures(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Rule{
		Name: "rewrite", Enabled: true, Path: "/users/:id", Handler: SetStatus(201),
	})

	resp, err := reg.Apply(context.Background(), "GET", "/users/42",
		recordmodel.ResponseRecord{Status: 200}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if resp.Status != 201 {
		t.Errorf("Status = %d, want 201", resp.Status)
	}
}

func TestApplyPassesThroughWhenNothingMatches(t *testing.T) {
	reg := NewRegistry()
	original := recordmodel.ResponseRecord{Status: 204}
	resp, err := reg.Apply(context.Background(), "GET", "/unmatched", original, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if resp.Status != 204 {
		t.Errorf("Status = %d, want unchanged 204", resp.Status)
	}
}

func TestChainThreadsResponseThroughHandlers(t *testing.T) {
	h := Chain(SetStatus(202), MergeHeaders(map[string]string{"x-chained": "yes"}))
	resp, err := h(context.Background(), recordmodel.ResponseRecord{Status: 200}, RequestContext{})
	if err != nil {
		t.Fatalf("Chain handler: %v", err)
	}
	if resp.Status != 202 {
		t.Errorf("Status = %d, want 202", resp.Status)
	}
	if resp.Headers["x-chained"] != "yes" {
		t.Errorf("Headers = %v, want x-chained=yes", resp.Headers)
	}
}

func TestSyntheticErrorShape(t *testing.T) {
	h := SyntheticError(503, "upstream down")
	resp, err := h(context.Background(), recordmodel.ResponseRecord{}, RequestContext{})
	if err != nil {
		t.Fatalf("SyntheticError handler: %v", err)
	}
	if resp.Status != 503 {
		t.Errorf("Status = %d, want 503", resp.Status)
	}
	body, ok := resp.Body.JSON.(map[string]interface{})
	if !ok {
		t.Fatalf("Body.JSON = %v, want a map", resp.Body.JSON)
	}
	if body["error"] != "Service Unavailable" || body["message"] != "upstream down" {
		t.Errorf("body = %v", body)
	}
}

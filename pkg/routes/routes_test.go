package routes

import "testing"

func TestMatchFirstMatchWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("GET", "/users/*", func(Request) Response { return Response{Status: 1} })
	reg.Register("GET", "/users/:id", func(Request) Response { return Response{Status: 2} })

	handler, _, ok := reg.Match("GET", "/users/42")
	if !ok {
		t.Fatal("Match() = false, want true")
	}
	resp := handler(Request{})
	if resp.Status != 1 {
		t.Errorf("first registered route did not win: Status = %d, want 1", resp.Status)
	}
}

func TestMatchCapturesParams(t *testing.T) {
	reg := NewRegistry()
	reg.Register("GET", "/users/:id", func(Request) Response { return Response{} })

	_, params, ok := reg.Match("GET", "/users/42")
	if !ok {
		t.Fatal("Match() = false, want true")
	}
	if params["id"] != "42" {
		t.Errorf("params = %v, want id=42", params)
	}
}

func TestMatchMethodMismatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register("POST", "/users", func(Request) Response { return Response{} })

	if _, _, ok := reg.Match("GET", "/users"); ok {
		t.Error("Match(GET) should not match a POST-only route")
	}
}

func TestMatchWildcardMethod(t *testing.T) {
	reg := NewRegistry()
	reg.Register("*", "/health", func(Request) Response { return Response{} })

	for _, method := range []string{"GET", "POST", "DELETE"} {
		if _, _, ok := reg.Match(method, "/health"); !ok {
			t.Errorf("Match(%s) = false, want true for wildcard method route", method)
		}
	}
}

func TestInvokeDefaultsZeroStatusTo200(t *testing.T) {
	resp := Invoke(func(Request) Response { return Response{} }, Request{})
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
}

func TestInvokePreservesExplicitStatus(t *testing.T) {
	resp := Invoke(func(Request) Response { return Response{Status: 404} }, Request{})
	if resp.Status != 404 {
		t.Errorf("Status = %d, want 404", resp.Status)
	}
}

func TestInvokePassesRequestThrough(t *testing.T) {
	var seen Request
	handler := func(r Request) Response {
		seen = r
		return Response{}
	}
	req := Request{Params: map[string]string{"id": "7"}}
	Invoke(handler, req)
	if seen.Params["id"] != "7" {
		t.Errorf("handler saw params %v, want id=7", seen.Params)
	}
}

package recordmodel

import (
	"net/http"
	"net/url"
	"testing"
)

func TestNormalizeHeadersLowercasesAndJoins(t *testing.T) {
	h := http.Header{}
	h.Add("X-Custom", "a")
	h.Add("X-Custom", "b")
	h.Add("Content-Type", "application/json")

	got := NormalizeHeaders(h)
	if got["x-custom"] != "a, b" {
		t.Errorf("x-custom = %q, want %q", got["x-custom"], "a, b")
	}
	if got["content-type"] != "application/json" {
		t.Errorf("content-type = %q", got["content-type"])
	}
}

func TestNormalizeHeadersEmpty(t *testing.T) {
	if got := NormalizeHeaders(http.Header{}); got != nil {
		t.Errorf("NormalizeHeaders(empty) = %v, want nil", got)
	}
}

func TestNormalizeQueryLastWins(t *testing.T) {
	v := url.Values{}
	v.Add("page", "1")
	v.Add("page", "2")

	got := NormalizeQuery(v)
	if got["page"] != "2" {
		t.Errorf("page = %q, want 2 (last-wins)", got["page"])
	}
}

func TestSortedByCreatedAtDescStableOnTies(t *testing.T) {
	entries := []*RecordedEntry{
		{ID: "a", CreatedAt: 100},
		{ID: "b", CreatedAt: 300},
		{ID: "c", CreatedAt: 300},
		{ID: "d", CreatedAt: 200},
	}
	sorted := SortedByCreatedAtDesc(entries)
	ids := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID, sorted[3].ID}
	want := []string{"b", "c", "d", "a"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("order = %v, want %v", ids, want)
			break
		}
	}

	// original slice must be untouched
	if entries[0].ID != "a" {
		t.Error("SortedByCreatedAtDesc mutated its input")
	}
}

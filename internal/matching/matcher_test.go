package matching

import (
	"testing"

	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

func req(method, path string) *recordmodel.RequestRecord {
	return &recordmodel.RequestRecord{Method: method, Path: path}
}

func entry(method, path string) *recordmodel.RecordedEntry {
	return &recordmodel.RecordedEntry{Request: recordmodel.RequestRecord{Method: method, Path: path}}
}

func TestScoreMethodDisqualifies(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)
	live := req("GET", "/users")
	candidate := req("POST", "/users")
	if got := Score(live, candidate, cfg); got != disqualified {
		t.Errorf("Score() = %d, want disqualified", got)
	}
}

func TestScorePathExactStrategy(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)

	live := req("GET", "/users/42")
	same := entry("GET", "/users/42")
	different := entry("GET", "/users/99")

	if got := Score(live, &same.Request, cfg); got == disqualified {
		t.Errorf("exact match disqualified, want a positive score")
	}
	if got := Score(live, &different.Request, cfg); got != disqualified {
		t.Errorf("Score() = %d, want disqualified under Exact strategy", got)
	}
}

func TestScorePathSmartStrategyTreatsIDsAsEquivalent(t *testing.T) {
	cfg := NewConfig(Smart, nil, nil)
	live := req("GET", "/users/42")
	candidate := entry("GET", "/users/99")

	got := Score(live, &candidate.Request, cfg)
	if got == disqualified {
		t.Fatalf("Smart strategy disqualified two ID-like segments")
	}
	if got != ScoreMethod+ScorePathSmart {
		t.Errorf("Score() = %d, want %d", got, ScoreMethod+ScorePathSmart)
	}
}

func TestScorePathSmartStrategyDisqualifiesNonIDMismatch(t *testing.T) {
	cfg := NewConfig(Smart, nil, nil)
	live := req("GET", "/users/active")
	candidate := entry("GET", "/users/inactive")

	if got := Score(live, &candidate.Request, cfg); got != disqualified {
		t.Errorf("Score() = %d, want disqualified for non-ID-like mismatch", got)
	}
}

func TestScorePathFuzzyStrategyPartialCredit(t *testing.T) {
	cfg := NewConfig(Fuzzy, nil, nil)
	live := req("GET", "/users/42/orders/99")
	candidate := entry("GET", "/users/42/orders/1")

	got := Score(live, &candidate.Request, cfg)
	if got == disqualified {
		t.Fatalf("Fuzzy strategy disqualified a partially-ID-matching path")
	}
	wantPathScore := 4 * ScorePathFuzzyMax / 4 // all four segments matched or ID-like
	if got != ScoreMethod+wantPathScore {
		t.Errorf("Score() = %d, want %d", got, ScoreMethod+wantPathScore)
	}
}

func TestScoreQueryPartialMatch(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)
	live := &recordmodel.RequestRecord{
		Method: "GET", Path: "/search",
		Query: map[string]string{"q": "go", "page": "1"},
	}
	candidate := &recordmodel.RequestRecord{
		Method: "GET", Path: "/search",
		Query: map[string]string{"q": "go", "page": "2"},
	}
	score := scoreQuery(live, candidate, cfg)
	if score != ScoreQueryMax/2 {
		t.Errorf("scoreQuery() = %d, want %d", score, ScoreQueryMax/2)
	}
}

func TestScoreHeadersIgnoresDefaultNoise(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)
	live := &recordmodel.RequestRecord{
		Headers: map[string]string{"authorization": "Bearer abc", "accept": "application/json"},
	}
	candidate := &recordmodel.RequestRecord{
		Headers: map[string]string{"authorization": "Bearer xyz", "accept": "application/json"},
	}
	score := scoreHeaders(live, candidate, cfg)
	if score != ScoreHeaderMax {
		t.Errorf("scoreHeaders() = %d, want %d (authorization should be ignored)", score, ScoreHeaderMax)
	}
}

func TestScoreBodyDeepEqualJSON(t *testing.T) {
	liveBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{"a": float64(1), "b": "x"}}
	candBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{"b": "x", "a": float64(1)}}
	live := &recordmodel.RequestRecord{Method: "POST", Body: &liveBody}
	candidate := &recordmodel.RequestRecord{Method: "POST", Body: &candBody}

	if got := scoreBody(live, candidate, Config{}); got != ScoreBodyDeepEqual {
		t.Errorf("scoreBody() = %d, want %d", got, ScoreBodyDeepEqual)
	}
}

func TestScoreBodySharedKeysFraction(t *testing.T) {
	liveBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{"a": 1.0, "b": 2.0}}
	candBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{"a": 1.0, "c": 3.0}}
	live := &recordmodel.RequestRecord{Method: "POST", Body: &liveBody}
	candidate := &recordmodel.RequestRecord{Method: "POST", Body: &candBody}

	got := scoreBody(live, candidate, Config{})
	want := 1 * ScoreBodyKeysMax / 2
	if got != want {
		t.Errorf("scoreBody() = %d, want %d", got, want)
	}
}

func TestScoreBodyIgnoredOnGET(t *testing.T) {
	liveBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{"a": 1.0}}
	candBody := bodyval.Value{Kind: bodyval.JSON, JSON: map[string]interface{}{}}
	live := &recordmodel.RequestRecord{Method: "GET", Body: &liveBody}
	candidate := &recordmodel.RequestRecord{Method: "GET", Body: &candBody}

	if got := scoreBody(live, candidate, Config{}); got != 0 {
		t.Errorf("scoreBody() = %d, want 0 for GET", got)
	}
}

func TestBestPicksHighestScore(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)
	live := req("GET", "/users/42")

	candidates := []*recordmodel.RecordedEntry{
		entry("GET", "/other"),
		entry("GET", "/users/42"),
		entry("POST", "/users/42"),
	}

	best := Best(live, candidates, cfg)
	if best == nil {
		t.Fatal("Best() = nil, want a match")
	}
	if best.Request.Path != "/users/42" || best.Request.Method != "GET" {
		t.Errorf("Best() picked %+v, want the exact GET match", best.Request)
	}
}

func TestBestReturnsNilWhenNothingQualifies(t *testing.T) {
	cfg := NewConfig(Exact, nil, nil)
	live := req("GET", "/users/42")
	candidates := []*recordmodel.RecordedEntry{entry("POST", "/users/42"), entry("GET", "/other")}

	if got := Best(live, candidates, cfg); got != nil {
		t.Errorf("Best() = %+v, want nil", got)
	}
}

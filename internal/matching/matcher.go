// Package matching scores a live request against a list of previously
// recorded candidates and picks the best replay match.
package matching

import (
	"strings"

	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// disqualified is a sentinel score meaning "never return this candidate".
const disqualified = -1

// contribution scores one dimension of a (live, candidate) pair against cfg.
// Returning disqualified means the candidate must not be considered at all,
// regardless of any other dimension's score.
type contribution func(live, candidate *recordmodel.RequestRecord, cfg Config) int

// Best returns the single highest-scoring candidate, or nil if none
// qualifies. Ties preserve input order; callers that want
// most-recently-created-wins should pass candidates pre-sorted by
// recordmodel.SortedByCreatedAtDesc.
func Best(live *recordmodel.RequestRecord, candidates []*recordmodel.RecordedEntry, cfg Config) *recordmodel.RecordedEntry {
	var best *recordmodel.RecordedEntry
	bestScore := disqualified

	for _, c := range candidates {
		score := Score(live, &c.Request, cfg)
		if score == disqualified {
			continue
		}
		if best == nil || score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// Score runs every contribution in the pipeline and folds the result,
// short-circuiting to disqualified as soon as one contribution disqualifies.
func Score(live, candidate *recordmodel.RequestRecord, cfg Config) int {
	pipeline := []contribution{
		scoreMethod,
		scorePath,
		scoreQuery,
		scoreHeaders,
		scoreBody,
	}

	total := 0
	for _, contrib := range pipeline {
		s := contrib(live, candidate, cfg)
		if s == disqualified {
			return disqualified
		}
		total += s
	}
	return total
}

func scoreMethod(live, candidate *recordmodel.RequestRecord, _ Config) int {
	if !strings.EqualFold(live.Method, candidate.Method) {
		return disqualified
	}
	return ScoreMethod
}

func scorePath(live, candidate *recordmodel.RequestRecord, cfg Config) int {
	if live.Path == candidate.Path {
		return ScorePathExact
	}

	liveSegs := splitPath(live.Path)
	candSegs := splitPath(candidate.Path)

	switch cfg.Strategy {
	case Exact:
		return disqualified

	case Smart:
		if len(liveSegs) != len(candSegs) {
			return disqualified
		}
		for i := range liveSegs {
			if liveSegs[i] == candSegs[i] {
				continue
			}
			if !IsIDLike(liveSegs[i]) || !IsIDLike(candSegs[i]) {
				return disqualified
			}
		}
		return ScorePathSmart

	default: // Fuzzy
		if len(liveSegs) != len(candSegs) {
			return disqualified
		}
		if len(liveSegs) == 0 {
			return ScorePathFuzzyMax
		}
		matched := 0
		for i := range liveSegs {
			switch {
			case liveSegs[i] == candSegs[i]:
				matched++
			case IsIDLike(liveSegs[i]) && IsIDLike(candSegs[i]):
				matched++
			default:
				return disqualified
			}
		}
		return matched * ScorePathFuzzyMax / len(liveSegs)
	}
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func scoreQuery(live, candidate *recordmodel.RequestRecord, cfg Config) int {
	keys := unionKeys(live.Query, candidate.Query, cfg.isIgnoredQueryParam)
	if len(keys) == 0 {
		return 0
	}
	matched := 0
	for k := range keys {
		if live.Query[k] == candidate.Query[k] {
			matched++
		}
	}
	return matched * ScoreQueryMax / len(keys)
}

func scoreHeaders(live, candidate *recordmodel.RequestRecord, cfg Config) int {
	keys := unionKeys(live.Headers, candidate.Headers, cfg.isIgnoredHeader)
	if len(keys) == 0 {
		return 0
	}
	matched := 0
	for k := range keys {
		if strings.EqualFold(live.Headers[k], candidate.Headers[k]) {
			matched++
		}
	}
	return matched * ScoreHeaderMax / len(keys)
}

// unionKeys returns the set of keys present in either map, excluding any
// the ignore predicate flags.
func unionKeys(a, b map[string]string, ignored func(string) bool) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		if !ignored(k) {
			keys[k] = struct{}{}
		}
	}
	for k := range b {
		if !ignored(k) {
			keys[k] = struct{}{}
		}
	}
	return keys
}

func scoreBody(live, candidate *recordmodel.RequestRecord, _ Config) int {
	switch strings.ToUpper(live.Method) {
	case "POST", "PUT", "PATCH":
	default:
		return 0
	}

	liveBody, candBody := live.Body, candidate.Body
	if liveBody == nil || candBody == nil {
		return 0
	}

	if liveBody.Kind == bodyval.JSON && candBody.Kind == bodyval.JSON && deepEqual(liveBody.JSON, candBody.JSON) {
		return ScoreBodyDeepEqual
	}
	if bytesEqual(liveBody, candBody) {
		return ScoreBodyDeepEqual
	}

	liveObj, liveIsObj := liveBody.ObjectView()
	candObj, candIsObj := candBody.ObjectView()
	if liveIsObj && candIsObj {
		if deepEqual(liveObj, candObj) {
			return ScoreBodyDeepEqual
		}
		shared := 0
		for k := range liveObj {
			if _, ok := candObj[k]; ok {
				shared++
			}
		}
		maxKeys := len(liveObj)
		if len(candObj) > maxKeys {
			maxKeys = len(candObj)
		}
		if maxKeys == 0 {
			return 0
		}
		return shared * ScoreBodyKeysMax / maxKeys
	}
	return 0
}

func bytesEqual(a, b *bodyval.Value) bool {
	if a.Kind != bodyval.Raw || b.Kind != bodyval.Raw {
		return false
	}
	return string(a.Raw) == string(b.Raw)
}

// deepEqual compares decoded JSON trees (maps/slices/scalars) for value
// equality, independent of key order.
func deepEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !deepEqual(v, bvv) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

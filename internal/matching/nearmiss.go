package matching

import (
	"sort"
	"strings"

	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// FieldResult describes whether a single scoring dimension matched the live
// request, without the early disqualification Score/Best apply.
type FieldResult struct {
	Field    string `json:"field"`
	Matched  bool   `json:"matched"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
}

// NearMiss is a stored entry that partially matched a live request during a
// failed replay lookup.
type NearMiss struct {
	EntryID          string        `json:"entryId"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`
}

func (nm *NearMiss) addField(f FieldResult) {
	nm.Fields = append(nm.Fields, f)
	nm.Score += f.Score
	nm.MaxPossibleScore += f.MaxScore
}

// Explain scores live against every candidate field-by-field instead of
// short-circuiting on the first disqualifying dimension the way Score does,
// so a replay miss can be explained rather than just reported. Candidates
// whose total score is zero are dropped; the rest are returned ordered by
// score descending, capped at topN.
func Explain(live *recordmodel.RequestRecord, candidates []*recordmodel.RecordedEntry, cfg Config, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}

	var results []NearMiss
	for _, c := range candidates {
		nm := breakdown(live, &c.Request, cfg)
		if nm.Score == 0 {
			continue
		}
		nm.EntryID = c.ID
		results = append(results, nm)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].MatchPercentage > results[j].MatchPercentage
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

// breakdown evaluates every scoring dimension against one candidate without
// disqualifying, reusing the same contribution functions Score uses.
func breakdown(live, candidate *recordmodel.RequestRecord, cfg Config) NearMiss {
	var nm NearMiss

	methodMatched := strings.EqualFold(live.Method, candidate.Method)
	methodScore := 0
	if methodMatched {
		methodScore = ScoreMethod
	}
	nm.addField(FieldResult{Field: "method", Matched: methodMatched, Score: methodScore, MaxScore: ScoreMethod})

	pathScore, pathMax := explainPath(live, candidate, cfg)
	nm.addField(FieldResult{Field: "path", Matched: pathScore > 0, Score: pathScore, MaxScore: pathMax})

	queryMax := 0
	if len(live.Query) > 0 || len(candidate.Query) > 0 {
		queryMax = ScoreQueryMax
	}
	queryScore := scoreQuery(live, candidate, cfg)
	nm.addField(FieldResult{Field: "query", Matched: queryMax > 0 && queryScore == queryMax, Score: queryScore, MaxScore: queryMax})

	headerMax := 0
	if len(live.Headers) > 0 || len(candidate.Headers) > 0 {
		headerMax = ScoreHeaderMax
	}
	headerScore := scoreHeaders(live, candidate, cfg)
	nm.addField(FieldResult{Field: "headers", Matched: headerMax > 0 && headerScore == headerMax, Score: headerScore, MaxScore: headerMax})

	bodyMax := 0
	switch strings.ToUpper(live.Method) {
	case "POST", "PUT", "PATCH":
		bodyMax = ScoreBodyDeepEqual
	}
	bodyScore := scoreBody(live, candidate, cfg)
	nm.addField(FieldResult{Field: "body", Matched: bodyMax > 0 && bodyScore >= ScoreBodyDeepEqual, Score: bodyScore, MaxScore: bodyMax})

	if nm.MaxPossibleScore > 0 {
		nm.MatchPercentage = nm.Score * 100 / nm.MaxPossibleScore
	}
	nm.Reason = generateReason(nm.Fields)
	return nm
}

// explainPath mirrors scorePath's strategy-dependent ceiling but never
// disqualifies, returning 0 instead so a mismatched path still shows up as a
// zero-scoring field rather than vanishing from the breakdown.
func explainPath(live, candidate *recordmodel.RequestRecord, cfg Config) (score, max int) {
	switch cfg.Strategy {
	case Exact:
		max = ScorePathExact
	case Smart:
		max = ScorePathSmart
	default:
		max = ScorePathFuzzyMax
	}
	s := scorePath(live, candidate, cfg)
	if s == disqualified {
		return 0, max
	}
	if s > max {
		max = s
	}
	return s, max
}

// generateReason builds a human-readable summary of which fields matched
// and which one to blame first for the rest.
func generateReason(fields []FieldResult) string {
	var matched []string
	var firstMismatch *FieldResult
	for i := range fields {
		if fields[i].MaxScore == 0 {
			continue
		}
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMismatch == nil {
			firstMismatch = &fields[i]
		}
	}

	if firstMismatch == nil {
		return "all compared fields matched"
	}
	if len(matched) == 0 {
		return firstMismatch.Field + " did not match"
	}
	return joinFields(matched) + " matched, but " + firstMismatch.Field + " did not"
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}

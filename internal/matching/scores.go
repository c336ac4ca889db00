package matching

// Contribution weights for the scoring pipeline. Each dimension either
// disqualifies a candidate outright or adds one of these amounts; the
// candidate with the highest total wins.
const (
	ScoreMethod = 100

	ScorePathExact = 100
	ScorePathSmart = 90
	// ScorePathFuzzyMax is the ceiling of the fuzzy path contribution;
	// the actual contribution is (matched segments / total segments) of it.
	ScorePathFuzzyMax = 80

	// ScoreQueryMax and ScoreHeaderMax are ceilings scaled by the matching
	// fraction of non-ignored keys, not flat per-key amounts.
	ScoreQueryMax  = 50
	ScoreHeaderMax = 30

	ScoreBodyDeepEqual = 50
	// ScoreBodyKeysMax is the ceiling of the partial-object-match
	// contribution, scaled by (shared top-level keys / max key count).
	ScoreBodyKeysMax = 30
)

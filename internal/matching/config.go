package matching

import "strings"

// Strategy selects how permissive path comparison is when looking for a
// replay candidate.
type Strategy string

const (
	// Exact requires path equality; no ID-like segment substitution.
	Exact Strategy = "exact"
	// Smart disqualifies on any non-ID-like segment mismatch but treats
	// differing ID-like segments on both sides as equivalent.
	Smart Strategy = "smart"
	// Fuzzy requires equal segment counts and disqualifies on any segment
	// that is neither equal nor ID-like on both sides; otherwise it scores
	// the fraction of matching-or-ID-like segments.
	Fuzzy Strategy = "fuzzy"
)

// DefaultIgnoredHeaders lists the header names excluded from header-
// dimension scoring by default: values that vary request-to-request
// without describing what's actually being asked for.
var DefaultIgnoredHeaders = []string{
	"authorization", "cookie", "x-request-id", "x-correlation-id",
	"date", "user-agent", "host", "content-length", "connection",
	"accept-encoding",
}

// Config governs the matcher's scoring behavior.
type Config struct {
	Strategy           Strategy
	IgnoredHeaders     map[string]struct{}
	IgnoredQueryParams map[string]struct{}
}

// NewConfig builds a Config from loose string lists, normalizing header
// names to lowercase and applying DefaultIgnoredHeaders when none are
// given explicitly.
func NewConfig(strategy Strategy, ignoredHeaders, ignoredQueryParams []string) Config {
	if strategy == "" {
		strategy = Smart
	}
	if len(ignoredHeaders) == 0 {
		ignoredHeaders = DefaultIgnoredHeaders
	}

	cfg := Config{
		Strategy:           strategy,
		IgnoredHeaders:     toSet(ignoredHeaders),
		IgnoredQueryParams: toSet(ignoredQueryParams),
	}
	return cfg
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(v)] = struct{}{}
	}
	return out
}

func (c Config) isIgnoredHeader(name string) bool {
	_, ok := c.IgnoredHeaders[strings.ToLower(name)]
	return ok
}

func (c Config) isIgnoredQueryParam(name string) bool {
	_, ok := c.IgnoredQueryParams[name]
	return ok
}

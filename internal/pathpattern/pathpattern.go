// Package pathpattern compiles path patterns into segment lists instead of
// regular expressions, so chaos rules, interceptor rules, and custom routes
// share one matching engine.
package pathpattern

import "strings"

// Kind discriminates one compiled segment.
type Kind int

const (
	// Literal requires the path segment to equal Value exactly.
	Literal Kind = iota
	// Capture matches any single segment, binding it to Value (the
	// parameter name) in the match result.
	Capture
	// AnySegment matches any single segment without binding it: a bare
	// "*" that isn't the pattern's final segment.
	AnySegment
	// Wildcard matches the remainder of the path, however many segments
	// that is (including zero). Only valid as the final segment.
	Wildcard
)

// Segment is one compiled unit of a pattern.
type Segment struct {
	Kind  Kind
	Value string // literal text, or the capture's parameter name
}

// Pattern is a compiled path pattern. matchAny is set when the whole
// pattern was the single character "*", which matches any path at all
// (including "/").
type Pattern struct {
	raw      string
	segments []Segment
	matchAny bool
}

// Compile builds a Pattern from its textual form.
//   - "*" alone matches any path.
//   - A segment written ":name" becomes a Capture bound to "name".
//   - A trailing "/*" segment becomes a Wildcard matching the rest of the
//     path.
//   - Every other segment is a Literal, compared verbatim.
func Compile(pattern string) *Pattern {
	if pattern == "*" {
		return &Pattern{raw: pattern, matchAny: true}
	}

	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		switch {
		case part == "*" && i == len(parts)-1:
			segments = append(segments, Segment{Kind: Wildcard})
		case part == "*":
			segments = append(segments, Segment{Kind: AnySegment})
		case strings.HasPrefix(part, ":") && len(part) > 1:
			segments = append(segments, Segment{Kind: Capture, Value: part[1:]})
		default:
			segments = append(segments, Segment{Kind: Literal, Value: part})
		}
	}
	return &Pattern{raw: pattern, segments: segments}
}

// String returns the original pattern text.
func (p *Pattern) String() string { return p.raw }

// Match reports whether path satisfies the pattern, and if so returns the
// captured parameters (nil when there are none).
func (p *Pattern) Match(path string) (bool, map[string]string) {
	if p.matchAny {
		return true, nil
	}

	pathParts := splitNonEmpty(path)

	var captures map[string]string
	for i, seg := range p.segments {
		if seg.Kind == Wildcard {
			return true, captures
		}
		if i >= len(pathParts) {
			return false, nil
		}
		switch seg.Kind {
		case Literal:
			if pathParts[i] != seg.Value {
				return false, nil
			}
		case Capture:
			if captures == nil {
				captures = make(map[string]string)
			}
			captures[seg.Value] = pathParts[i]
		case AnySegment:
			// matches unconditionally, nothing to bind
		}
	}

	if len(pathParts) != len(p.segments) {
		return false, nil
	}
	return true, captures
}

func splitNonEmpty(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

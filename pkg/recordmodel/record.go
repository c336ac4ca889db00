// Package recordmodel defines the data types shared by every component that
// reads or writes a captured request/response pair: the storage backends,
// the request matcher, the interceptor registry, and the admin API.
package recordmodel

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/egehanasal/apidouble/pkg/bodyval"
)

// RequestRecord captures everything about an inbound request that the
// matcher, the storage layer, or a replayed response might need later.
type RequestRecord struct {
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Path         string            `json:"path"`
	Query        map[string]string `json:"query,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         *bodyval.Value    `json:"body,omitempty"`
	ID           string            `json:"id"`
	CapturedAtMs int64             `json:"capturedAtMs"`
}

// ResponseRecord captures everything about the response that was returned
// (or, in replay mode, will be returned) for a given request.
type ResponseRecord struct {
	Status       int               `json:"status"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         *bodyval.Value    `json:"body,omitempty"`
	CapturedAtMs int64             `json:"capturedAtMs"`
}

// RecordedEntry is the immutable unit of persistence: one request paired
// with the response it received (or should produce on replay).
type RecordedEntry struct {
	ID        string         `json:"id"`
	Request   RequestRecord  `json:"request"`
	Response  ResponseRecord `json:"response"`
	CreatedAt int64          `json:"createdAt"` // epoch millis
}

// NormalizeHeaders lowercases header names and comma-joins repeated values.
// Header names are treated case-insensitively throughout matching and
// storage.
func NormalizeHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return out
}

// NormalizeQuery takes the last value for each repeated query key
// (last-wins for repeats).
func NormalizeQuery(v url.Values) map[string]string {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string]string, len(v))
	for key, values := range v {
		if len(values) == 0 {
			continue
		}
		out[key] = values[len(values)-1]
	}
	return out
}

// SortedByCreatedAtDesc returns entries ordered most-recently-created first,
// stable on ties.
func SortedByCreatedAtDesc(entries []*RecordedEntry) []*RecordedEntry {
	out := make([]*RecordedEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

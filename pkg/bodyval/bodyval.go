// Package bodyval models the possible shapes an HTTP request or response
// body can take once captured: entirely absent, a decoded JSON tree, a
// decoded URL-encoded form, or a raw byte/string payload that matched
// neither and was left alone.
package bodyval

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Kind discriminates the tagged sum.
type Kind int

const (
	// Absent means no body was present on the wire at all. This is
	// distinct from a JSON null, which is a Kind == JSON value wrapping
	// the Go nil interface.
	Absent Kind = iota
	// Raw means the body is carried as opaque bytes, either because its
	// Content-Type matched neither JSON nor URL-encoded form, or because
	// it claimed one of those but failed to decode.
	Raw
	// JSON means the body was decoded into a Go value tree
	// (map[string]interface{}, []interface{}, string, float64, bool, nil).
	JSON
	// Form means the body was decoded from
	// application/x-www-form-urlencoded into key/value pairs.
	Form
)

// Value is a tagged sum over a captured body.
type Value struct {
	Kind Kind
	Raw  []byte      // valid when Kind == Raw
	JSON interface{} // valid when Kind == JSON (may legitimately be nil for a JSON "null")
	Form url.Values  // valid when Kind == Form
}

// IsAbsent reports whether the body was never present.
func (v Value) IsAbsent() bool { return v.Kind == Absent }

// FromRequest decodes a captured body according to the request's declared
// Content-Type: JSON and URL-encoded form bodies are auto-decoded into a
// structured tree, anything else (or anything that claims one of those but
// fails to parse) is kept as a raw string body.
func FromRequest(contentType string, raw []byte) Value {
	if len(raw) == 0 {
		return Value{Kind: Absent}
	}
	if isJSONContentType(contentType) {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return Value{Kind: JSON, JSON: decoded}
		}
	}
	if isFormContentType(contentType) {
		if decoded, err := url.ParseQuery(string(raw)); err == nil {
			return Value{Kind: Form, Form: decoded}
		}
	}
	return Value{Kind: Raw, Raw: raw}
}

func isJSONContentType(ct string) bool {
	ct = baseContentType(ct)
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

func isFormContentType(ct string) bool {
	return baseContentType(ct) == "application/x-www-form-urlencoded"
}

func baseContentType(ct string) string {
	ct = strings.ToLower(ct)
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(ct)
}

// ObjectView exposes a flat key/value view of the body, covering both a
// decoded JSON object and a decoded form body the same way, for callers
// (the matcher's partial-body comparison) that want to compare shared keys
// regardless of which of the two the body was decoded from. Repeated form
// keys collapse to their last value, matching recordmodel.NormalizeQuery.
func (v Value) ObjectView() (map[string]interface{}, bool) {
	switch v.Kind {
	case JSON:
		m, ok := v.JSON.(map[string]interface{})
		return m, ok
	case Form:
		if v.Form == nil {
			return nil, false
		}
		out := make(map[string]interface{}, len(v.Form))
		for k, vals := range v.Form {
			if len(vals) == 0 {
				continue
			}
			out[k] = vals[len(vals)-1]
		}
		return out, true
	default:
		return nil, false
	}
}

// Bytes renders the value back into wire bytes for forwarding or
// re-serialization. JSON and Form values are marshaled/encoded fresh
// rather than returned byte-exact with whatever the original wire form
// looked like.
func (v Value) Bytes() []byte {
	switch v.Kind {
	case Absent:
		return nil
	case Raw:
		return v.Raw
	case JSON:
		b, err := json.Marshal(v.JSON)
		if err != nil {
			return nil
		}
		return b
	case Form:
		return []byte(v.Form.Encode())
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler so a Value embeds naturally inside
// RequestRecord/ResponseRecord documents persisted to the file-journal or
// sent back from the admin API. Absent marshals to JSON's "field omitted"
// via the pointer-wrapping callers are expected to use (see recordmodel).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Absent:
		return []byte("null"), nil
	case Raw:
		// Raw bodies are not necessarily valid UTF-8 text, but in practice
		// (HTTP request/response capture) they are, so store as a JSON string.
		return json.Marshal(string(v.Raw))
	case JSON:
		return json.Marshal(v.JSON)
	case Form:
		// The original x-www-form-urlencoded wire form isn't preserved
		// across persistence; a Form value round-trips through storage as
		// a plain JSON object and comes back as Kind == JSON. That's fine
		// for replay matching (ObjectView treats both the same way) and
		// for display; only a live, not-yet-persisted Form value is ever
		// re-encoded back into x-www-form-urlencoded bytes for forwarding.
		obj, _ := v.ObjectView()
		return json.Marshal(obj)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a Value from its persisted form. Strings become
// Raw (matching how MarshalJSON encodes them); anything else becomes JSON,
// including what was originally a Form value (see MarshalJSON). A literal
// JSON null becomes a JSON Kind wrapping nil. null is distinct from
// absent, so callers that need to represent Absent must use a *Value with
// a nil pointer.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		*v = Value{Kind: JSON, JSON: nil}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{Kind: Raw, Raw: []byte(s)}
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*v = Value{Kind: JSON, JSON: decoded}
	return nil
}

// ContentTypeFromHeader is a small helper so callers don't need to import
// net/http just to pull Content-Type off a header map.
func ContentTypeFromHeader(h http.Header) string {
	return h.Get("Content-Type")
}

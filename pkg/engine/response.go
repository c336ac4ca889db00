package engine

import (
	"encoding/json"
	"net/http"

	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// writeResponse emits resp to w, applying its headers and status before
// the body.
func writeResponse(w http.ResponseWriter, resp recordmodel.ResponseRecord) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != nil {
		_, _ = w.Write(resp.Body.Bytes())
	}
}

// writeJSONError emits a JSON error body with the given status, matching
// the {error, message, ...} shape used throughout the dispatcher.
func writeJSONError(w http.ResponseWriter, status int, errName, message string, extra map[string]interface{}) {
	payload := map[string]interface{}{"error": errName, "message": message}
	for k, v := range extra {
		payload[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonBody(v interface{}) *bodyval.Value {
	return &bodyval.Value{Kind: bodyval.JSON, JSON: v}
}

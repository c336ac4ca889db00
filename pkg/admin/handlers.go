package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/egehanasal/apidouble/pkg/engine"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// writeJSON encodes data as the response body after setting status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, errName, message string) {
	writeJSON(w, status, map[string]any{"error": errName, "message": message})
}

// handleHealth handles GET /__health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"mode":   a.dispatcher.Mode().External(),
		"uptime": int(a.Uptime().Seconds()),
	})
}

// handleStatus handles GET /__status.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := a.dispatcher.Store().Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	body := map[string]any{
		"mode":            a.dispatcher.Mode().External(),
		"recordedEntries": count,
		"port":            a.port,
	}
	if target := a.dispatcher.Target(); target != "" {
		body["target"] = target
	}
	writeJSON(w, http.StatusOK, body)
}

type mockSummary struct {
	ID        string `json:"id"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

// handleListMocks handles GET /__mocks.
func (a *API) handleListMocks(w http.ResponseWriter, r *http.Request) {
	entries, err := a.dispatcher.Store().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	summaries := make([]mockSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, mockSummary{
			ID:        e.ID,
			Method:    e.Request.Method,
			Path:      e.Request.Path,
			Status:    e.Response.Status,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(summaries),
		"entries": summaries,
	})
}

// handleClearMocks handles DELETE /__mocks.
func (a *API) handleClearMocks(w http.ResponseWriter, r *http.Request) {
	if err := a.dispatcher.Store().Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "all recorded entries cleared",
	})
}

// handleDeleteMock handles DELETE /__mocks/{id}.
func (a *API) handleDeleteMock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existed, err := a.dispatcher.Store().Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "Not Found", "no recorded entry with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "entry " + id + " deleted",
	})
}

// handleExplainMock handles GET /__mocks/explain?method=GET&path=/users/1,
// reporting the near-misses a hypothetical request would get against the
// current replay store without actually dispatching it.
func (a *API) handleExplainMock(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("method")
	path := r.URL.Query().Get("path")
	if method == "" || path == "" {
		writeError(w, http.StatusBadRequest, "Bad Request", "\"method\" and \"path\" query parameters are required")
		return
	}

	req := recordmodel.RequestRecord{
		Method: method,
		Path:   path,
	}
	nearMisses, err := a.dispatcher.Explain(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request":    map[string]any{"method": method, "path": path},
		"nearMisses": nearMisses,
	})
}

type setModeRequest struct {
	Mode    string `json:"mode"`
	Target  string `json:"target,omitempty"`
	Timeout int    `json:"timeout,omitempty"` // seconds
}

// handleSetMode handles POST /__mode.
func (a *API) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	mode, err := engine.ParseExternalMode(body.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if body.Target != "" {
		timeout := 30 * time.Second
		if body.Timeout > 0 {
			timeout = time.Duration(body.Timeout) * time.Second
		}
		if err := a.dispatcher.SetTarget(body.Target, timeout); err != nil {
			writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	if err := a.dispatcher.SetMode(mode); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mode":    mode.External(),
	})
}

// handleGetChaos handles GET /__chaos.
func (a *API) handleGetChaos(w http.ResponseWriter, r *http.Request) {
	injector := a.dispatcher.ChaosInjector()
	if injector == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":           false,
			"requestsProcessed": 0,
			"errorsInjected":    0,
			"averageLatency":    0,
		})
		return
	}

	snapshot := injector.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":           injector.Enabled(),
		"requestsProcessed": snapshot.RequestsProcessed,
		"errorsInjected":    snapshot.ErrorsInjected,
		"averageLatency":    snapshot.AverageLatencyMs,
	})
}

type setChaosRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleSetChaos handles POST /__chaos.
func (a *API) handleSetChaos(w http.ResponseWriter, r *http.Request) {
	injector := a.dispatcher.ChaosInjector()
	if injector == nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "chaos injection is not configured")
		return
	}

	var body setChaosRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "\"enabled\" must be a boolean")
		return
	}

	injector.SetEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "enabled": *body.Enabled})
}

package admin

import "net/http"

// registerRoutes wires every admin endpoint onto mux using Go's method and
// pattern routing.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /__health", a.handleHealth)
	mux.HandleFunc("GET /__status", a.handleStatus)

	mux.HandleFunc("GET /__mocks", a.handleListMocks)
	mux.HandleFunc("DELETE /__mocks", a.handleClearMocks)
	mux.HandleFunc("GET /__mocks/explain", a.handleExplainMock)
	mux.HandleFunc("DELETE /__mocks/{id}", a.handleDeleteMock)

	mux.HandleFunc("POST /__mode", a.handleSetMode)

	mux.HandleFunc("GET /__chaos", a.handleGetChaos)
	mux.HandleFunc("POST /__chaos", a.handleSetChaos)

	mux.HandleFunc("GET /__admin", a.handleDashboard)
}

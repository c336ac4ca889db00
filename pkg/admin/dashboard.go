package admin

import "net/http"

const dashboardPage = `<!DOCTYPE html>
<html>
<head><title>apidouble</title></head>
<body>
<h1>apidouble admin</h1>
<p>See /__health, /__status, /__mocks, /__mode, /__chaos.</p>
</body>
</html>
`

// handleDashboard handles GET /__admin. The real dashboard is an external
// collaborator; this is the opaque placeholder document the core ships
// with when no richer UI is built in.
func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(dashboardPage))
}

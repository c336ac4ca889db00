// Package admin implements the in-band control plane mounted under the
// /__ prefix: health, status, recorded-entry introspection, runtime mode
// switching, and chaos configuration.
package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/egehanasal/apidouble/pkg/engine"
	"github.com/egehanasal/apidouble/pkg/logging"
)

// API serves the admin endpoints over a dispatcher it does not own; the
// dispatcher is wired in after construction via engine.Dispatcher's
// SetAdminHandler so the engine package never imports this one.
type API struct {
	dispatcher *engine.Dispatcher
	port       int
	startedAt  time.Time
	log        *slog.Logger
	mux        *http.ServeMux
}

// New builds an API bound to dispatcher, listening conceptually on port
// (used only for status reporting, since the admin routes share the main
// listener).
func New(dispatcher *engine.Dispatcher, port int, log *slog.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	a := &API{
		dispatcher: dispatcher,
		port:       port,
		startedAt:  time.Now(),
		log:        log,
	}
	a.mux = http.NewServeMux()
	a.registerRoutes(a.mux)
	return a
}

// ServeHTTP lets API itself be mounted as the dispatcher's admin handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Uptime returns how long the process has been running.
func (a *API) Uptime() time.Duration {
	return time.Since(a.startedAt)
}

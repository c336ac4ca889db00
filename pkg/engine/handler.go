// Package engine implements the request dispatcher: admin short-circuit,
// chaos injection, custom routes, and the replay/record-forward/
// transform-forward mode branch.
package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/egehanasal/apidouble/internal/id"
	"github.com/egehanasal/apidouble/internal/matching"
	"github.com/egehanasal/apidouble/internal/storage"
	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/chaos"
	"github.com/egehanasal/apidouble/pkg/forwarder"
	"github.com/egehanasal/apidouble/pkg/intercept"
	"github.com/egehanasal/apidouble/pkg/logging"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
	"github.com/egehanasal/apidouble/pkg/routes"
)

// AdminPrefix is the path prefix reserved for the control plane. Requests
// under it bypass chaos injection and the mode pipeline entirely.
const AdminPrefix = "/__"

// Hooks are lifecycle callbacks fired around every non-admin request.
// Either field may be nil.
type Hooks struct {
	OnRequest  func(req recordmodel.RequestRecord)
	OnResponse func(req recordmodel.RequestRecord, resp recordmodel.ResponseRecord)
}

// ForwarderFactory lazily builds a Forwarder the first time a forward mode
// needs one, so the dispatcher can start in replay mode with no target
// configured at all.
type ForwarderFactory func() (*forwarder.Forwarder, error)

// Dispatcher is the engine's single http.Handler, implementing the
// admin/chaos/custom-route/mode pipeline.
type Dispatcher struct {
	mu sync.RWMutex

	mode      Mode
	store     storage.Store
	matchCfg  matching.Config
	chaos     *chaos.Injector
	intercept *intercept.Registry
	routes    *routes.Registry

	forwarder        *forwarder.Forwarder
	forwarderFactory ForwarderFactory

	adminHandler http.Handler
	hooks        Hooks
	log          *slog.Logger
}

// Config bundles everything needed to construct a Dispatcher.
type Config struct {
	Mode             Mode
	Store            storage.Store
	MatchConfig      matching.Config
	Chaos            *chaos.Injector
	Intercept        *intercept.Registry
	Routes           *routes.Registry
	ForwarderFactory ForwarderFactory
	Hooks            Hooks
	Logger           *slog.Logger
}

// NewDispatcher builds a Dispatcher from cfg. When cfg.Mode needs a
// forwarder, the forwarder is built immediately so a misconfigured target
// fails fast at startup rather than on the first request.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Intercept == nil {
		cfg.Intercept = intercept.NewRegistry()
	}
	if cfg.Routes == nil {
		cfg.Routes = routes.NewRegistry()
	}

	d := &Dispatcher{
		mode:             cfg.Mode,
		store:            cfg.Store,
		matchCfg:         cfg.MatchConfig,
		chaos:            cfg.Chaos,
		intercept:        cfg.Intercept,
		routes:           cfg.Routes,
		forwarderFactory: cfg.ForwarderFactory,
		hooks:            cfg.Hooks,
		log:              log,
	}

	if cfg.Mode.needsForwarder() {
		if err := d.ensureForwarderLocked(cfg.Mode); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// SetAdminHandler wires the admin control-plane handler in after
// construction, avoiding a dependency cycle between the engine and admin
// packages.
func (d *Dispatcher) SetAdminHandler(h http.Handler) {
	d.mu.Lock()
	d.adminHandler = h
	d.mu.Unlock()
}

// HasCustomRoute reports whether a custom route matches, used by the CORS
// middleware to defer preflight handling to a user-defined OPTIONS route.
func (d *Dispatcher) HasCustomRoute(method, path string) bool {
	_, _, ok := d.routes.Match(method, path)
	return ok
}

// Store returns the storage backing used for replay lookups and
// record-forward persistence, for admin introspection.
func (d *Dispatcher) Store() storage.Store {
	return d.store
}

// ChaosInjector returns the chaos injector wired into the dispatcher, nil
// if chaos was never configured.
func (d *Dispatcher) ChaosInjector() *chaos.Injector {
	return d.chaos
}

// Target reports the upstream base URL in use, empty if none is
// configured.
func (d *Dispatcher) Target() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.forwarder == nil {
		return ""
	}
	return d.forwarder.BaseURL()
}

// Explain reports the top near-misses a hypothetical request would get
// against the current replay store, for the admin diagnostic surface.
func (d *Dispatcher) Explain(req recordmodel.RequestRecord) ([]matching.NearMiss, error) {
	entries, err := d.store.List(context.Background())
	if err != nil {
		return nil, err
	}
	return matching.Explain(&req, entries, d.matchCfg, 3), nil
}

// Mode returns the dispatcher's current mode.
func (d *Dispatcher) Mode() Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// SetMode atomically switches modes. Switching into a forward mode lazily
// builds the forwarder if one doesn't exist yet; it fails if no target is
// configured.
func (d *Dispatcher) SetMode(m Mode) error {
	if !m.Valid() {
		return &modeError{mode: string(m)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if m.needsForwarder() && d.forwarder == nil {
		if err := d.ensureForwarderLocked(m); err != nil {
			return err
		}
	}
	d.mode = m
	return nil
}

// SetTarget rebuilds the forwarder against a new upstream base URL,
// replacing whatever forwarder (if any) was previously configured. Used by
// the admin /__mode endpoint when a request supplies a target alongside a
// mode switch.
func (d *Dispatcher) SetTarget(baseURL string, timeout time.Duration) error {
	fw, err := forwarder.New(baseURL, timeout)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.forwarder = fw
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) ensureForwarderLocked(m Mode) error {
	if d.forwarder != nil {
		return nil
	}
	if d.forwarderFactory == nil {
		return &modeError{mode: string(m), reason: "no upstream target configured"}
	}
	fw, err := d.forwarderFactory()
	if err != nil {
		return err
	}
	d.forwarder = fw
	return nil
}

type modeError struct {
	mode   string
	reason string
}

func (e *modeError) Error() string {
	if e.reason != "" {
		return "engine: cannot switch to mode " + e.mode + ": " + e.reason
	}
	return "engine: invalid mode " + e.mode
}

// ServeHTTP implements the dispatcher's staged request pipeline.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, AdminPrefix) {
		d.mu.RLock()
		admin := d.adminHandler
		d.mu.RUnlock()
		if admin != nil {
			admin.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	req := d.buildRequestRecord(r)
	if d.hooks.OnRequest != nil {
		d.hooks.OnRequest(req)
	}

	if d.chaos != nil {
		outcome := d.chaos.Apply(r.Context(), req.Method, req.Path)
		if outcome.InjectedError != nil {
			resp := recordmodel.ResponseRecord{
				Status: outcome.InjectedError.Status,
				Headers: map[string]string{"content-type": "application/json"},
				Body: jsonBody(map[string]interface{}{
					"error":    outcome.InjectedError.Error,
					"message":  outcome.InjectedError.Message,
					"injected": true,
					"details":  outcome.InjectedError.Details,
				}),
			}
			writeResponse(w, resp)
			d.fireOnResponse(req, resp)
			return
		}
	}

	if handler, params, ok := d.routes.Match(req.Method, req.Path); ok {
		resp := routes.Invoke(handler, routes.Request{
			Params:  params,
			Query:   req.Query,
			Body:    safeBody(req.Body),
			Headers: req.Headers,
		})
		record := recordmodel.ResponseRecord{Status: resp.Status, Headers: resp.Headers, Body: &resp.Body}
		writeResponse(w, record)
		d.fireOnResponse(req, record)
		return
	}

	d.dispatchMode(w, r.Context(), req)
}

func (d *Dispatcher) dispatchMode(w http.ResponseWriter, ctx context.Context, req recordmodel.RequestRecord) {
	switch d.Mode() {
	case ModeReplay:
		d.serveReplay(w, req)
	case ModeRecordForward:
		d.serveForward(w, ctx, req, false)
	case ModeTransformForward:
		d.serveForward(w, ctx, req, true)
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error", "dispatcher has no valid mode configured", nil)
	}
}

func (d *Dispatcher) serveReplay(w http.ResponseWriter, req recordmodel.RequestRecord) {
	entries, err := d.store.List(context.Background())
	if err != nil {
		d.log.Error("replay: failed to list stored entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error", "failed to read storage", nil)
		return
	}

	match := matching.Best(&req, entries, d.matchCfg)
	if match == nil {
		nearMisses := matching.Explain(&req, entries, d.matchCfg, 3)
		resp := recordmodel.ResponseRecord{
			Status:  http.StatusNotFound,
			Headers: map[string]string{"content-type": "application/json"},
			Body: jsonBody(map[string]interface{}{
				"error":      "Not Found",
				"message":    "No matching mock found for this request",
				"request":    map[string]interface{}{"method": req.Method, "path": req.Path},
				"nearMisses": nearMisses,
			}),
		}
		writeResponse(w, resp)
		d.fireOnResponse(req, resp)
		return
	}

	writeResponse(w, match.Response)
	d.fireOnResponse(req, match.Response)
}

func (d *Dispatcher) serveForward(w http.ResponseWriter, ctx context.Context, req recordmodel.RequestRecord, transform bool) {
	d.mu.RLock()
	fw := d.forwarder
	d.mu.RUnlock()

	if fw == nil {
		writeJSONError(w, http.StatusBadGateway, "Bad Gateway", "no upstream target configured", nil)
		return
	}

	resp, err := fw.Forward(ctx, req)
	if err != nil {
		d.handleForwardError(w, req, err)
		return
	}

	if transform {
		transformed, terr := d.intercept.Apply(ctx, req.Method, req.Path, resp, &req, req.Query)
		if terr != nil {
			d.log.Warn("transform-forward: interceptor handler failed, emitting untransformed response", "error", terr)
		} else {
			resp = transformed
		}
	}

	if _, err := d.store.Save(ctx, req, resp); err != nil {
		// Persistence failure is logged but must not fail the client response.
		d.log.Error("forward: failed to persist entry", "error", err)
	}

	writeResponse(w, resp)
	d.fireOnResponse(req, resp)
}

func (d *Dispatcher) handleForwardError(w http.ResponseWriter, req recordmodel.RequestRecord, err error) {
	var timeoutErr *forwarder.TimeoutError
	if asTimeoutError(err, &timeoutErr) {
		resp := recordmodel.ResponseRecord{
			Status:  http.StatusGatewayTimeout,
			Headers: map[string]string{"content-type": "application/json"},
			Body: jsonBody(map[string]interface{}{
				"error":   "Gateway Timeout",
				"message": timeoutErr.Error(),
			}),
		}
		writeResponse(w, resp)
		d.fireOnResponse(req, resp)
		return
	}

	resp := recordmodel.ResponseRecord{
		Status:  http.StatusBadGateway,
		Headers: map[string]string{"content-type": "application/json"},
		Body: jsonBody(map[string]interface{}{
			"error":   "Bad Gateway",
			"message": err.Error(),
		}),
	}
	writeResponse(w, resp)
	d.fireOnResponse(req, resp)
}

func asTimeoutError(err error, target **forwarder.TimeoutError) bool {
	te, ok := err.(*forwarder.TimeoutError)
	if ok {
		*target = te
	}
	return ok
}

func (d *Dispatcher) fireOnResponse(req recordmodel.RequestRecord, resp recordmodel.ResponseRecord) {
	if d.hooks.OnResponse != nil {
		d.hooks.OnResponse(req, resp)
	}
}

func (d *Dispatcher) buildRequestRecord(r *http.Request) recordmodel.RequestRecord {
	raw, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	body := bodyval.FromRequest(r.Header.Get("Content-Type"), raw)

	return recordmodel.RequestRecord{
		Method:       r.Method,
		URL:          r.URL.String(),
		Path:         r.URL.Path,
		Query:        recordmodel.NormalizeQuery(r.URL.Query()),
		Headers:      recordmodel.NormalizeHeaders(r.Header),
		Body:         bodyPointer(body),
		ID:           id.UUID(),
		CapturedAtMs: nowMillis(),
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func safeBody(v *bodyval.Value) bodyval.Value {
	if v == nil {
		return bodyval.Value{Kind: bodyval.Absent}
	}
	return *v
}

// bodyPointer wraps v as a *Value, collapsing Absent to nil so an absent
// body omits the JSON field entirely instead of round-tripping as a
// literal null.
func bodyPointer(v bodyval.Value) *bodyval.Value {
	if v.IsAbsent() {
		return nil
	}
	return &v
}

// Package chaos injects configurable latency and synthetic errors into the
// request lifecycle, ahead of mode dispatch.
package chaos

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/egehanasal/apidouble/internal/pathpattern"
)

// Outcome is what Apply decided to do for one request.
type Outcome struct {
	// InjectedError is non-nil when a synthetic error response must be
	// returned instead of continuing the request.
	InjectedError *ErrorResponse
	// LatencyAppliedMs is the delay, in milliseconds, that was already
	// slept before Apply returned.
	LatencyAppliedMs int
}

// ErrorResponse is the synthetic body shape emitted on error injection.
type ErrorResponse struct {
	Status  int
	Error   string
	Message string
	Details interface{}
}

type compiledRule struct {
	rule    Rule
	pattern *pathpattern.Pattern
}

// Injector is the chaos sub-system. It holds its own RNG so test code can
// construct a deterministic one via NewInjectorWithRand.
type Injector struct {
	mu      sync.RWMutex
	enabled bool
	def     *compiledRule
	rules   []compiledRule
	rng     *rand.Rand
	rngMu   sync.Mutex
	stats   Stats
}

// NewInjector builds an Injector from cfg, compiling every rule's path
// pattern up front.
func NewInjector(cfg Config) (*Injector, error) {
	return newInjector(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewInjectorWithRand is the deterministic constructor used by tests.
func NewInjectorWithRand(cfg Config, rng *rand.Rand) (*Injector, error) {
	return newInjector(cfg, rng)
}

func newInjector(cfg Config, rng *rand.Rand) (*Injector, error) {
	inj := &Injector{enabled: cfg.Enabled, rng: rng}
	if err := inj.reconfigure(cfg); err != nil {
		return nil, err
	}
	return inj, nil
}

func (i *Injector) reconfigure(cfg Config) error {
	compiled := make([]compiledRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("chaos rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{rule: r, pattern: pathpattern.Compile(r.Path)})
	}

	var def *compiledRule
	if cfg.Default != nil {
		if err := validateRule(*cfg.Default); err != nil {
			return fmt.Errorf("chaos default rule: %w", err)
		}
		def = &compiledRule{rule: *cfg.Default, pattern: pathpattern.Compile("*")}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.enabled = cfg.Enabled
	i.rules = compiled
	i.def = def
	return nil
}

// UpdateConfig atomically replaces the active configuration.
func (i *Injector) UpdateConfig(cfg Config) error {
	return i.reconfigure(cfg)
}

func validateRule(r Rule) error {
	if r.Error != nil {
		if r.Error.Rate < 0 || r.Error.Rate > 100 {
			return errors.New("error rate must be within [0, 100]")
		}
		if r.Error.Status < 400 || r.Error.Status > 599 {
			return errors.New("error status must be within [400, 599]")
		}
	}
	return nil
}

// Enabled reports whether chaos injection is currently active.
func (i *Injector) Enabled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.enabled
}

// SetEnabled toggles injection without touching the configured rules.
func (i *Injector) SetEnabled(enabled bool) {
	i.mu.Lock()
	i.enabled = enabled
	i.mu.Unlock()
}

// Apply runs the latency and error sub-engines for one request, sleeping
// for any applied latency before returning. When disabled, Apply is a
// no-op and stats are left untouched.
func (i *Injector) Apply(ctx context.Context, method, path string) Outcome {
	if !i.Enabled() {
		return Outcome{}
	}

	rule := i.matchRule(method, path)
	if rule == nil {
		i.stats.recordPassthrough()
		return Outcome{}
	}

	var outcome Outcome
	if rule.Latency != nil {
		delay := i.drawLatency(rule.Latency)
		outcome.LatencyAppliedMs = delay
		if delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(delay) * time.Millisecond):
			}
		}
	}

	if rule.Error != nil && i.drawErrorSample() < rule.Error.Rate {
		outcome.InjectedError = &ErrorResponse{
			Status:  rule.Error.Status,
			Error:   reasonPhrase(rule.Error.Status),
			Message: rule.Error.Message,
			Details: rule.Error.Details,
		}
		i.stats.recordError()
	}

	i.stats.recordLatency(outcome.LatencyAppliedMs)
	return outcome
}

// matchRule finds the first enabled rule whose method and path pattern
// match, falling back to the default rule when none do.
func (i *Injector) matchRule(method, path string) *Rule {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, cr := range i.rules {
		if !cr.rule.Enabled {
			continue
		}
		if cr.rule.Method != "" && cr.rule.Method != "*" && !strings.EqualFold(cr.rule.Method, method) {
			continue
		}
		if ok, _ := cr.pattern.Match(path); ok {
			rule := cr.rule
			return &rule
		}
	}
	if i.def != nil && i.def.rule.Enabled {
		rule := i.def.rule
		return &rule
	}
	return nil
}

func (i *Injector) drawLatency(cfg *LatencyConfig) int {
	if cfg.Min >= cfg.Max {
		return cfg.Min
	}
	i.rngMu.Lock()
	defer i.rngMu.Unlock()
	return cfg.Min + i.rng.Intn(cfg.Max-cfg.Min+1)
}

func (i *Injector) drawErrorSample() float64 {
	i.rngMu.Lock()
	defer i.rngMu.Unlock()
	return i.rng.Float64() * 100
}

// Stats returns a snapshot of the injector's observable counters.
func (i *Injector) Stats() Snapshot {
	return i.stats.Snapshot()
}

var reasonPhrases = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusRequestTimeout:      "Request Timeout",
	http.StatusTooManyRequests:     "Too Many Requests",
	http.StatusInternalServerError: "Internal Server Error",
	http.StatusBadGateway:          "Bad Gateway",
	http.StatusServiceUnavailable:  "Service Unavailable",
	http.StatusGatewayTimeout:      "Gateway Timeout",
}

func reasonPhrase(status int) string {
	if phrase, ok := reasonPhrases[status]; ok {
		return phrase
	}
	return "Error"
}

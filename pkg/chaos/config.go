package chaos

// LatencyConfig draws a delay uniformly from [Min, Max] milliseconds.
type LatencyConfig struct {
	Min int
	Max int
}

// ErrorInjectionConfig decides whether to emit a synthetic error response
// instead of continuing the request. Message is user-supplied text carried
// in the synthetic body; Details is optional and passed through verbatim.
type ErrorInjectionConfig struct {
	Rate    float64 // 0..100
	Status  int     // 400..599
	Message string
	Details interface{}
}

// Rule pairs a method+path match with the latency/error behavior to apply
// when it matches. Rules are evaluated in insertion order; the first
// enabled match wins.
type Rule struct {
	Name    string
	Enabled bool
	Method  string // "*" or empty matches any method
	Path    string // pathpattern syntax: literal segments, ":name", trailing "/*", or "*"
	Latency *LatencyConfig
	Error   *ErrorInjectionConfig
}

// Config is the full chaos configuration: whether injection is active at
// all, an optional default behavior applied when no rule matches, and the
// ordered rule set.
type Config struct {
	Enabled bool
	Default *Rule
	Rules   []Rule
}

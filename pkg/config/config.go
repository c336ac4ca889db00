// Package config loads and saves the YAML configuration document that
// drives server mode, storage backing, CORS, chaos, and matcher behavior.
package config

// Config is the full configuration document. Unset fields are filled in by
// Defaults() before use; the loader never rejects a file for omitting a
// key.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Target   TargetConfig   `yaml:"target"`
	Storage  StorageConfig  `yaml:"storage"`
	CORS     CORSConfig     `yaml:"cors"`
	Chaos    ChaosConfig    `yaml:"chaos"`
	Matching MatchingConfig `yaml:"matching"`
}

// ServerConfig controls the listener and initial dispatch mode. Mode uses
// the admin-facing vocabulary: "mock" | "proxy" | "intercept".
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

// TargetConfig names the upstream used by forward modes.
type TargetConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// StorageConfig selects and locates the persistence backing.
type StorageConfig struct {
	Type string `yaml:"type"` // "lowdb" | "sqlite"
	Path string `yaml:"path"`
}

// CORSConfig governs the preflight/allow-list middleware.
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// ChaosConfig is the top-level chaos toggle plus its default latency and
// error behavior. Per-route rules are not part of the config file; they are
// set on the chaos injector through chaos.Injector.UpdateConfig.
type ChaosConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Latency   LatencyConfig `yaml:"latency"`
	ErrorRate float64       `yaml:"errorRate"`
}

// LatencyConfig is the default latency window applied when no per-route
// rule overrides it.
type LatencyConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// MatchingConfig governs replay-mode request matching.
type MatchingConfig struct {
	Strategy          string   `yaml:"strategy"` // "exact" | "smart" | "fuzzy"
	IgnoreHeaders     []string `yaml:"ignoreHeaders"`
	IgnoreQueryParams []string `yaml:"ignoreQueryParams"`
}

// Defaults returns the documented default configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Port: 3001, Mode: "mock"},
		Storage: StorageConfig{Type: "lowdb", Path: "./mocks/db.json"},
		CORS:    CORSConfig{Enabled: true},
		Chaos:   ChaosConfig{Enabled: false},
		Matching: MatchingConfig{
			Strategy: "smart",
			IgnoreHeaders: []string{
				"authorization", "cookie", "x-request-id", "x-correlation-id",
				"date", "user-agent", "host", "content-length", "connection",
				"accept-encoding",
			},
		},
	}
}

// applyDefaults fills in zero-valued fields of cfg from Defaults(),
// without disturbing anything the caller already set.
func applyDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = defaults.Server.Mode
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = defaults.Storage.Type
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.Matching.Strategy == "" {
		cfg.Matching.Strategy = defaults.Matching.Strategy
	}
	if len(cfg.Matching.IgnoreHeaders) == 0 {
		cfg.Matching.IgnoreHeaders = defaults.Matching.IgnoreHeaders
	}
}

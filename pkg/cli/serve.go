package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/egehanasal/apidouble/internal/matching"
	"github.com/egehanasal/apidouble/pkg/admin"
	"github.com/egehanasal/apidouble/pkg/chaos"
	"github.com/egehanasal/apidouble/pkg/config"
	"github.com/egehanasal/apidouble/pkg/engine"
	"github.com/egehanasal/apidouble/pkg/forwarder"
	"github.com/egehanasal/apidouble/pkg/intercept"
	"github.com/egehanasal/apidouble/pkg/logging"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
	"github.com/egehanasal/apidouble/pkg/routes"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests before
// forcing the listener closed.
const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	port          int
	mode          string
	target        string
	targetTimeout int
	storageType   string
	storagePath   string
	matchStrategy string
	corsEnabled   bool
	chaosEnabled  bool
	logFormat     string
	logLevel      string
}

var sf serveFlags

var serveCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&sf.port, "port", "p", 0, "listen port (overrides config)")
	serveCmd.Flags().StringVarP(&sf.mode, "mode", "m", "", "dispatch mode: mock, proxy, intercept (overrides config)")
	serveCmd.Flags().StringVarP(&sf.target, "target", "t", "", "upstream base URL (overrides config)")
	serveCmd.Flags().IntVar(&sf.targetTimeout, "target-timeout", 0, "upstream request timeout in seconds (overrides config)")
	serveCmd.Flags().StringVar(&sf.storageType, "storage-type", "", "storage backing: lowdb, sqlite (overrides config)")
	serveCmd.Flags().StringVar(&sf.storagePath, "storage-path", "", "storage file path (overrides config)")
	serveCmd.Flags().StringVar(&sf.matchStrategy, "match-strategy", "", "replay match strategy: exact, smart, fuzzy (overrides config)")
	serveCmd.Flags().BoolVar(&sf.corsEnabled, "cors", false, "enable CORS (overrides config when --cors is passed)")
	serveCmd.Flags().BoolVar(&sf.chaosEnabled, "chaos", false, "enable chaos injection (overrides config when --chaos is passed)")
	serveCmd.Flags().StringVar(&sf.logFormat, "log-format", "text", "log output format: text, json")
	serveCmd.Flags().StringVar(&sf.logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(&cfg)

	log := logging.New(logging.Config{
		Level:     logging.ParseLevel(sf.logLevel),
		Format:    logging.ParseFormat(sf.logFormat),
		Component: "cli",
	})

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	mode, err := engine.ParseExternalMode(cfg.Server.Mode)
	if err != nil {
		return err
	}

	matchCfg := matching.NewConfig(matching.Strategy(cfg.Matching.Strategy), cfg.Matching.IgnoreHeaders, cfg.Matching.IgnoreQueryParams)

	var injector *chaos.Injector
	if cfg.Chaos.Enabled {
		injector, err = chaos.NewInjector(chaos.Config{
			Enabled: true,
			Default: &chaos.Rule{
				Name:    "default",
				Enabled: true,
				Path:    "*",
				Latency: &chaos.LatencyConfig{Min: cfg.Chaos.Latency.Min, Max: cfg.Chaos.Latency.Max},
				Error:   &chaos.ErrorInjectionConfig{Rate: cfg.Chaos.ErrorRate, Status: 500, Message: "injected failure"},
			},
		})
		if err != nil {
			return fmt.Errorf("cli: invalid chaos config: %w", err)
		}
	}

	var factory engine.ForwarderFactory
	if cfg.Target.URL != "" {
		timeout := time.Duration(cfg.Target.Timeout) * time.Second
		factory = func() (*forwarder.Forwarder, error) {
			return forwarder.New(cfg.Target.URL, timeout)
		}
	}

	dispatcher, err := engine.NewDispatcher(engine.Config{
		Mode:             mode,
		Store:            store,
		MatchConfig:      matchCfg,
		Chaos:            injector,
		Intercept:        intercept.NewRegistry(),
		Routes:           routes.NewRegistry(),
		ForwarderFactory: factory,
		Hooks:            requestLogHooks(log),
		Logger:           logging.Component(log, "engine"),
	})
	if err != nil {
		return fmt.Errorf("cli: failed to start dispatcher: %w", err)
	}

	adminAPI := admin.New(dispatcher, cfg.Server.Port, logging.Component(log, "admin"))
	dispatcher.SetAdminHandler(adminAPI)

	server := engine.NewServer(dispatcher, engine.ServerConfig{
		Addr:   fmt.Sprintf(":%d", cfg.Server.Port),
		CORS:   engine.CORSConfig{Enabled: cfg.CORS.Enabled, Origins: cfg.CORS.Origins},
		Logger: log,
	})

	if err := server.Start(); err != nil {
		return err
	}
	log.Info("server started", "port", cfg.Server.Port, "mode", mode.External())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	return server.Stop(shutdownTimeout)
}

// requestLogHooks builds the lifecycle hooks the dispatcher fires around
// every non-admin request, logging one line per completed request with the
// method, path, status, and duration.
func requestLogHooks(log *slog.Logger) engine.Hooks {
	return engine.Hooks{
		OnRequest: func(req recordmodel.RequestRecord) {
			log.Debug("request received", "method", req.Method, "path", req.Path)
		},
		OnResponse: func(req recordmodel.RequestRecord, resp recordmodel.ResponseRecord) {
			log.Info("request completed",
				"method", req.Method,
				"path", req.Path,
				"status", resp.Status,
				"durationMs", time.Now().UnixMilli()-req.CapturedAtMs,
			)
		},
	}
}

func applyServeFlags(cfg *config.Config) {
	if sf.port != 0 {
		cfg.Server.Port = sf.port
	}
	if sf.mode != "" {
		cfg.Server.Mode = sf.mode
	}
	if sf.target != "" {
		cfg.Target.URL = sf.target
	}
	if sf.targetTimeout != 0 {
		cfg.Target.Timeout = sf.targetTimeout
	}
	if sf.storageType != "" {
		cfg.Storage.Type = sf.storageType
	}
	if sf.storagePath != "" {
		cfg.Storage.Path = sf.storagePath
	}
	if sf.matchStrategy != "" {
		cfg.Matching.Strategy = sf.matchStrategy
	}
	if sf.corsEnabled {
		cfg.CORS.Enabled = true
	}
	if sf.chaosEnabled {
		cfg.Chaos.Enabled = true
	}
}

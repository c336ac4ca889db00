package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/egehanasal/apidouble/pkg/logging"
)

// Server wraps a Dispatcher with an http.Server and the CORS middleware,
// exposing a Start/Stop lifecycle for the CLI's start command.
type Server struct {
	mu sync.RWMutex

	dispatcher *Dispatcher
	cors       CORSConfig
	httpServer *http.Server
	log        *slog.Logger

	addr      string
	running   bool
	startedAt time.Time
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr         string
	CORS         CORSConfig
	Logger       *slog.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer wraps dispatcher with the CORS middleware and binds it to a
// Server ready to Start.
func NewServer(dispatcher *Dispatcher, cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}

	handler := http.Handler(dispatcher)
	handler = newCORSMiddleware(handler, cfg.CORS, dispatcher)

	return &Server{
		dispatcher: dispatcher,
		cors:       cfg.CORS,
		addr:       cfg.Addr,
		log:        log,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Dispatcher returns the underlying Dispatcher, for admin wiring and mode
// switching.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Start begins serving in a background goroutine and returns immediately.
// A failure after the listener is bound is logged, not returned, matching
// the fire-and-forget style of a long-running server process.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("engine: server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("engine: failed to listen on %s: %w", s.addr, err)
	}

	s.log.Info("starting server", "addr", s.addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
		}
	}()

	s.running = true
	s.startedAt = time.Now()
	return nil
}

// Stop gracefully shuts the server down, giving in-flight requests up to
// the given timeout to complete.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.running = false
	return err
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running, zero if stopped.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Package api exposes the monitor engine over a JSON HTTP interface
// with a websocket stream for live updates.
package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/endorses/watchcat/internal/pkg/alerting"
	"github.com/endorses/watchcat/internal/pkg/constants"
	"github.com/endorses/watchcat/internal/pkg/logger"
	"github.com/endorses/watchcat/internal/pkg/monitor"
	"github.com/endorses/watchcat/internal/pkg/platform"
	"github.com/endorses/watchcat/internal/pkg/sysmetrics"
)

// Engine is the monitoring surface the API serves. Implemented by
// monitor.Engine; tests substitute a stub.
type Engine interface {
	TriggerRefresh(ctx context.Context) (sysmetrics.Sample, error)
	Realtime(ctx context.Context, refresh bool) (monitor.Status, error)
	Platform() platform.Info
	History(window time.Duration) iter.Seq[sysmetrics.Sample]
	Alerts(n int) []alerting.Alert
	Subscribe(buffer int) (<-chan monitor.Status, func())
}

// Config holds the API server settings.
type Config struct {
	// ListenAddr is the host:port to bind. Defaults to loopback.
	ListenAddr string
}

// Server serves the JSON API for one engine.
type Server struct {
	config       Config
	engine       Engine
	httpServer   *http.Server
	upgrader     websocket.Upgrader
	shutdownOnce sync.Once
}

// NewServer creates an API server for the given engine.
func NewServer(config Config, engine Engine) *Server {
	if config.ListenAddr == "" {
		config.ListenAddr = constants.DefaultAPIListenAddr
	}
	return &Server{
		config: config,
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the route table. Exposed so tests can drive the
// API through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/realtime", s.handleRealtime)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/platform", s.handlePlatform)
	mux.HandleFunc("/api/v1/alerts", s.handleAlerts)
	mux.HandleFunc("/api/v1/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Start begins serving and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("api: failed to listen on %s: %w", s.config.ListenAddr, err)
	}

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  constants.APIReadTimeout,
		WriteTimeout: constants.APIWriteTimeout,
		IdleTimeout:  constants.APIIdleTimeout,
	}

	logger.Info("API server starting", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, allowing in-flight requests
// to finish.
func (s *Server) Shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.httpServer == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.APIShutdownTimeout)
		defer cancel()

		logger.Info("API server shutting down")
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", "error", err)
			shutdownErr = err
		}
	})
	return shutdownErr
}

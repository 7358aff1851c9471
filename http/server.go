// Package http exposes the marketplace API over HTTP.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the HTTP server with the standard middleware chain.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns the default listener settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer builds a server serving the given API.
func NewServer(config ServerConfig, api *API, logger *zap.Logger) *Server {
	if config.Port == 0 {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	api.Register(mux)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		CORSMiddleware(config.AllowedOrigins),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Stop or a listener error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/movers/pkg/config"
	"github.com/wonny/movers/pkg/logger"
)

// Server wraps the HTTP listener for the movers API.
type Server struct {
	srv *http.Server
	cfg *config.Config
	log *logger.Logger
}

// New creates an API server bound to the configured port.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:        net.JoinHostPort("", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// A synchronous ingest trigger can take up to the full
			// ingestion budget, so the write timeout must exceed it.
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		cfg: cfg,
		log: log,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithFields(map[string]interface{}{
		"port": s.cfg.Port,
		"env":  s.cfg.Env,
	}).Info("API server listening")

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("API server shutting down")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

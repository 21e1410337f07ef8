// Package dashboard serves the pattern dashboard: an embedded page, JSON
// endpoints, a websocket scan feed and the candlestick chart.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wraps handler in an http.Server. WriteTimeout is the default for
// cheap endpoints; analysis handlers extend it per request.
func NewServer(port int, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", l.Addr().String()))

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}

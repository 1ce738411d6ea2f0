package api

import (
	"context"
	"net/http"
	"time"

	"gmpwatch/pkg/logger"
)

// Server is the watch-mode status server.
type Server struct {
	http *http.Server
	log  *logger.Logger
}

// NewServer wraps the handler in an http.Server listening on the given
// port with conservative timeouts.
func NewServer(port string, h http.Handler, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         ":" + port,
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// ListenAndServe blocks serving requests until Shutdown. A clean shutdown
// returns nil.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.http.Addr).Info("Status server listening")

	if err := s.http.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Status server shutting down")
	return s.http.Shutdown(ctx)
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/howlrs/board4go/internal/controller"
)

// Server runs the C9 command API over plain HTTP/JSON, keeping the
// teacher's http.Server lifecycle (timeouts, graceful Shutdown) but
// routing the ten controller/instrument/ticker/logger endpoints instead
// of a dashboard WebSocket push.
type Server struct {
	svc    *Service
	server *http.Server
	logger *slog.Logger
}

// NewServer wires the C9 routes onto a ServeMux, matching the teacher's
// own mux.HandleFunc registration style.
func NewServer(addr string, cfg controller.Controller, slogger *slog.Logger) *Server {
	svc := NewService(cfg, slogger)
	handlers := NewHandlers(svc, slogger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /controller/start", handlers.HandleStartController)
	mux.HandleFunc("POST /controller/stop", handlers.HandleStopController)
	mux.HandleFunc("GET /controller", handlers.HandleGetController)
	mux.HandleFunc("POST /controller", handlers.HandlePostController)
	mux.HandleFunc("PUT /controller", handlers.HandlePutController)
	mux.HandleFunc("DELETE /controller", handlers.HandleDeleteController)
	mux.HandleFunc("GET /instruments", handlers.HandleGetInstruments)
	mux.HandleFunc("GET /ticker", handlers.HandleGetTicker)
	mux.HandleFunc("GET /logger", handlers.HandleGetLogger)
	mux.HandleFunc("POST /logger/clear", handlers.HandleClearLogger)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		svc:    svc,
		server: server,
		logger: slogger.With("component", "command-api-server"),
	}
}

// Start blocks until the server stops; call in a goroutine.
func (s *Server) Start() error {
	s.logger.Info("command api starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server and aborts any running pipeline.
func (s *Server) Stop() error {
	s.logger.Info("stopping command api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.svc.mu.Lock()
	s.svc.abortLocked()
	s.svc.mu.Unlock()

	return s.server.Shutdown(ctx)
}

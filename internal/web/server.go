package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"workpulse/internal/config"

	"go.uber.org/zap"
)

type Server struct {
	config  *config.Config
	handler *Handler
	logger  *zap.Logger
	server  *http.Server
}

func NewServer(cfg *config.Config, handler *Handler, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		logger:  logger,
		server:  httpServer,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

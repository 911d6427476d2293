// Package server exposes the route generator, wallet and executor over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"intent-swap/config"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 30 * time.Second

// Server is the HTTP front end
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	logger     *logrus.Logger
}

// New builds the router and HTTP server for cfg.
func New(cfg config.ServerConfig, handler *Handler, logger *logrus.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, handler, logger)

	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        router,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		router: router,
		logger: logger,
	}
}

// Handler returns the routed http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, failed := <-errCh:
		if failed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server...")
	return s.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("HTTP server shutdown failed: %v", err)
		return err
	}

	s.logger.Info("API server stopped")
	return nil
}

func setupRouter(cfg config.ServerConfig, h *Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger))

	router.GET("/health", h.HealthCheck)

	limiter := NewRateLimiter(cfg.RateLimit, logger)
	v1 := router.Group("/api/v1")
	v1.Use(limiter.RateLimit())
	{
		v1.POST("/solve", h.Solve)
		v1.POST("/execute", h.Execute)
		v1.GET("/executions", h.Executions)

		v1.GET("/tokens", h.Tokens)
		v1.GET("/chains", h.Chains)
		v1.GET("/metrics", h.Metrics)

		v1.GET("/wallet", h.Wallet)
		v1.POST("/wallet/connect", h.ConnectWallet)
		v1.POST("/wallet/disconnect", h.DisconnectWallet)
	}

	return router
}

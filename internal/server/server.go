// Package server exposes the engine over HTTP for UI clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/josephgoksu/geotask/internal/app"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Server.
type Config struct {
	Addr    string
	Version string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Origins allowed for CORS requests.
	Origins []string
	Logger  *slog.Logger
}

// Server is the HTTP adapter over an Engine.
type Server struct {
	engine    *app.Engine
	version   string
	gatherer  prometheus.Gatherer
	origins   map[string]struct{}
	log       *slog.Logger
	startTime time.Time
	router    *gin.Engine
	server    *http.Server
}

// New builds the router. It does not start listening.
func New(engine *app.Engine, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		version:   cfg.Version,
		gatherer:  cfg.Gatherer,
		origins:   make(map[string]struct{}, len(cfg.Origins)),
		log:       cfg.Logger,
		startTime: time.Now(),
	}
	for _, o := range cfg.Origins {
		s.origins[o] = struct{}{}
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.registerRoutes(s.router)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in a goroutine. Listen errors are sent on errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.log.Info("http server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

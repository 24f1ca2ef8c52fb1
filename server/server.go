// Package server exposes the search tool over HTTP: a stateless JSON-RPC
// endpoint for agents plus plain JSON endpoints for compiling and searching.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bawdo/filtersql/compiler"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/tool"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	Token        string
	Name         string
	Version      string
	Instructions string
	// RateLimit is requests per minute per client IP. Zero disables limiting.
	RateLimit       int
	RateBurst       int
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Addr:            "localhost:8001",
		Name:            "filtersql",
		Version:         "1.0.0",
		Instructions:    "This server provides connection to remote datasets",
		RateLimit:       120,
		RateBurst:       30,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server routes HTTP requests to the search tool.
type Server struct {
	cfg     Config
	search  *tool.Search
	logger  *slog.Logger
	metrics *metrics
	router  *gin.Engine
}

// New builds the router.
func New(cfg Config, search *tool.Search, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	s := &Server{cfg: cfg, search: search, logger: logger, metrics: newMetrics()}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(s.logger, s.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := r.Group("/")
	if s.cfg.RateLimit > 0 {
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		api.Use(rateLimitMiddleware(NewRateLimiter(s.cfg.RateLimit, burst, 15*time.Minute), s.metrics))
	}
	api.Use(bearerAuthMiddleware(s.cfg.Token))

	api.POST("/", s.handleRPC)
	api.POST("/mcp", s.handleRPC)
	api.POST("/v1/compile", s.handleCompile)
	api.POST("/v1/search", s.handleSearch)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// limitedBody reads the request body, refusing bodies over MaxBodyBytes.
// On failure status is 413 for oversized bodies and 400 otherwise.
func (s *Server) limitedBody(c *gin.Context) (body []byte, status int, err error) {
	body, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, errors.New("could not read body")
	}
	return body, http.StatusOK, nil
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, status, err := s.limitedBody(c)
	if err != nil {
		c.JSON(status, gin.H{"detail": err.Error()})
		return nil, false
	}
	return body, true
}

// handleCompile compiles a query request without running it. The table
// defaults to the tool's table.
func (s *Server) handleCompile(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	comp := s.search.Compiler()
	q, err := compiler.DecodeQuery(body, comp.MaxDepth())
	if err == nil {
		if q.Table == "" {
			q.Table = s.search.Table()
		}
		var res *compiler.Result
		res, err = comp.Compile(c.Request.Context(), q)
		if err == nil {
			s.metrics.compiles.WithLabelValues("ok").Inc()
			c.JSON(http.StatusOK, res)
			return
		}
	}

	kind := filter.KindOf(err)
	s.metrics.compiles.WithLabelValues(kind.String()).Inc()
	c.JSON(compileStatus(err), gin.H{
		"error":   kind.String(),
		"path":    filter.PathOf(err),
		"message": err.Error(),
	})
}

func compileStatus(err error) int {
	switch {
	case tool.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, filter.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleSearch runs the tool with the request body as its arguments.
func (s *Server) handleSearch(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	text, isErr := s.search.Call(c.Request.Context(), json.RawMessage(body))
	s.metrics.toolCall(s.search.Name(), isErr)
	c.JSON(http.StatusOK, gin.H{"text": text, "is_error": isErr})
}

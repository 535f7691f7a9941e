// Package httpapi provides the HTTP API for kompow.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/flashcards"
	"github.com/vaibhavp4/kompow/internal/pipeline"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// DefaultUser owns flashcard sets created through the generate
	// endpoint when the request names no user.
	DefaultUser string `koanf:"default_user"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DefaultUser == "" {
		c.DefaultUser = "api_user"
	}
}

// Server provides HTTP endpoints over the pipeline and flashcard store.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	repo     *flashcards.Repository
	opener   pipeline.CollectionOpener
	logger   *zap.Logger
	config   Config
}

// NewServer creates the HTTP server. All dependencies are required except
// the pipeline's producer, which may be absent; generation requests then
// fail with 503 while retrieval keeps working.
func NewServer(p *pipeline.Pipeline, repo *flashcards.Repository, opener pipeline.CollectionOpener, logger *zap.Logger, cfg Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	if opener == nil {
		return nil, fmt.Errorf("collection opener cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			RequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", c.Response().Status),
			).Inc()

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		pipeline: p,
		repo:     repo,
		opener:   opener,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/flashcards/generate", s.handleGenerate)
	v1.GET("/flashcards", s.handleListSets)
	v1.GET("/flashcards/topics", s.handleListTopics)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

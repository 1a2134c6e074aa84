// Package httpapi exposes the honeypot engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"scam-honeypot/internal/auth"
	"scam-honeypot/internal/honeypot"
)

const (
	serviceName    = "Agentic Honey-Pot API"
	serviceVersion = "2.0.0"
)

// Server provides the honeypot HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	engine  *honeypot.Engine
	keys    *auth.Service
	metrics http.Handler
	logger  *zap.Logger
	config  *Config
	now     func() time.Time
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// RequestTimeout bounds one turn, including generator calls.
	RequestTimeout time.Duration
}

type Option func(*Server)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new HTTP server.
func NewServer(engine *honeypot.Engine, keys *auth.Service, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if keys == nil {
		return nil, fmt.Errorf("key service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{Host: "0.0.0.0", Port: 8000}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 25 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		engine: engine,
		keys:   keys,
		logger: logger,
		config: cfg,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := s.echo.Group("/api", s.requireAPIKey)
	api.POST("/honeypot", s.handleTurn)
	api.POST("/final", s.handleFinal)
	api.GET("/session/:id", s.handleSession)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

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

const apiKeyHeader = "x-api-key"

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, ok := s.keys.Lookup(c.Request().Header.Get(apiKeyHeader))
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Invalid or missing API key"})
		}
		c.Set("api_key_name", key.Name)
		return next(c)
	}
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Timestamp      int64  `json:"timestamp"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "active",
		"llm":     s.engine.LLMEnabled(),
		"endpoints": map[string]string{
			"honeypot": "POST /api/honeypot",
			"final":    "POST /api/final?session_id=",
			"session":  "GET  /api/session/:id",
			"health":   "GET  /health",
			"metrics":  "GET  /metrics",
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		ActiveSessions: s.engine.ActiveSessions(),
		Timestamp:      s.now().Unix(),
	})
}

// TurnResponse is the body of POST /api/honeypot.
type TurnResponse struct {
	Status       string `json:"status"`
	Reply        string `json:"reply"`
	ScamDetected bool   `json:"scamDetected"`
	SessionID    string `json:"sessionId"`
}

func (s *Server) handleTurn(c echo.Context) error {
	var in honeypot.Inbound
	if err := c.Bind(&in); err != nil {
		s.logger.Warn("invalid turn request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	defer cancel()

	res, err := s.engine.Process(ctx, in)
	if err != nil {
		if errors.Is(err, honeypot.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		}
		// the counterpart always gets a reply
		s.logger.Error("turn failed", zap.Error(err), zap.String("session_id", in.SessionID))
		res = honeypot.Result{Reply: honeypot.FallbackReply}
	}
	return c.JSON(http.StatusOK, TurnResponse{
		Status:       "success",
		Reply:        res.Reply,
		ScamDetected: res.ScamDetected,
		SessionID:    in.SessionID,
	})
}

// FinalResponse is the body of POST /api/final.
type FinalResponse struct {
	Status       string `json:"status"`
	CallbackSent bool   `json:"callbackSent"`
	SessionID    string `json:"sessionId"`
	FinalOutput  any    `json:"finalOutput"`
}

func (s *Server) handleFinal(c echo.Context) error {
	id := c.QueryParam("session_id")
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	defer cancel()

	rep, err := s.engine.ForceReport(ctx, id)
	resp := FinalResponse{SessionID: id, FinalOutput: rep}
	switch {
	case err == nil, errors.Is(err, honeypot.ErrAlreadySent):
		resp.Status, resp.CallbackSent = "submitted", true
	case errors.Is(err, honeypot.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
	case errors.Is(err, honeypot.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Detail: fmt.Sprintf("Session %q not found", id)})
	case errors.Is(err, honeypot.ErrInFlight):
		resp.Status = "pending"
	default:
		s.logger.Warn("forced report failed", zap.Error(err), zap.String("session_id", id))
		resp.Status = "failed"
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSession(c echo.Context) error {
	id := c.Param("id")
	view, ok := s.engine.SessionView(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Detail: fmt.Sprintf("Session %q not found", id)})
	}
	return c.JSON(http.StatusOK, view)
}

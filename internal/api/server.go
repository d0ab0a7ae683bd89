package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/huam/biocurate/internal/api/middleware"
	v2 "github.com/huam/biocurate/internal/api/v2"
	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/observability"
)

// Server serves the curation service over HTTP
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	service *curation.Service
	metrics *observability.Metrics
	build   *buildinfo.Info

	apiController *v2.Controller

	startTime time.Time
}

type ServerOption func(*Server)

func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithMetrics exposes m at /metrics when metrics are enabled
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithBuildInfo sets the version reported by health endpoints
func WithBuildInfo(info *buildinfo.Info) ServerOption {
	return func(s *Server) { s.build = info }
}

// WithConfig replaces the configuration derived from settings
func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) { s.config = cfg }
}

// New builds the echo instance with middleware and routes; it does not listen
func New(settings *conf.Settings, service *curation.Service, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config:    ConfigFromSettings(settings),
		settings:  settings,
		service:   service,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.log == nil {
		s.log = logger.Global().Module("api")
	}
	if s.build == nil {
		s.build = buildinfo.Current()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = s.config.Debug
	e.Server.ReadTimeout = s.config.ReadTimeout
	e.Server.WriteTimeout = s.config.WriteTimeout
	e.Server.IdleTimeout = s.config.IdleTimeout
	s.echo = e

	s.useMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}

	s.log.Info("HTTP server initialized",
		logger.String("address", s.config.Address()),
		logger.Bool("metrics", s.metricsEnabled()),
		logger.Bool("debug", s.config.Debug))
	return s, nil
}

// useMiddleware installs recovery first so panics in later middleware are
// caught too
func (s *Server) useMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, func(c echo.Context) bool {
		return c.Path() == "/metrics" || c.Path() == "/health"
	}))
	s.echo.Use(mw.Security(s.config.AllowedOrigins)...)
	s.echo.Use(mw.BodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.Compress())
}

func (s *Server) registerRoutes() error {
	s.echo.GET("/health", s.healthCheck)
	if s.metricsEnabled() {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	controller, err := v2.New(s.echo, s.service, s.settings,
		v2.WithLogger(s.log.Module("v2")),
		v2.WithBuildInfo(s.build))
	if err != nil {
		return fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = controller
	return nil
}

func (s *Server) metricsEnabled() bool {
	return s.config.MetricsEnabled && s.metrics != nil
}

func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	_, noDataset := s.service.Dataset()
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.build.GetVersion(),
		"build_date":     s.build.GetBuildDate(),
		"dataset_loaded": noDataset == nil,
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// StartWithGracefulShutdown serves until ctx is done or the listener fails,
// then drains in-flight requests for up to the shutdown timeout
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		err := s.echo.Start(s.config.Address())
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()
	s.log.Info("HTTP server starting", logger.String("address", s.config.Address()))

	select {
	case err := <-listenErr:
		if err != nil {
			s.log.Error("HTTP server failed", logger.Error(err))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutdown requested, draining requests")
	}
	return s.Shutdown()
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if s.apiController != nil {
		s.apiController.Shutdown()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("HTTP server shutdown failed", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) APIController() *v2.Controller {
	return s.apiController
}

// Echo exposes the router, mainly for httptest
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

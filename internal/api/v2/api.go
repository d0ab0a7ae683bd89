// Package api implements the JSON API of BioCurate under /api/v2.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "github.com/huam/biocurate/internal/api/middleware"
	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
)

// Prefix is the mount point of every route in this package
const Prefix = "/api/v2"

// DefaultMaxUploadBytes caps uploaded worksheets when settings carry no limit
const DefaultMaxUploadBytes = 32 << 20

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Service  *curation.Service
	Settings *conf.Settings
	Build    *buildinfo.Info

	logger         logger.Logger
	maxUploadBytes int64
	startTime      time.Time
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithBuildInfo sets the metadata reported by the health endpoint
func WithBuildInfo(info *buildinfo.Info) Option {
	return func(c *Controller) { c.Build = info }
}

// New creates the controller and registers its routes on e
func New(e *echo.Echo, service *curation.Service, settings *conf.Settings, opts ...Option) (*Controller, error) {
	if e == nil {
		return nil, fmt.Errorf("echo instance is required")
	}
	if service == nil {
		return nil, fmt.Errorf("curation service is required")
	}

	c := &Controller{
		Echo:           e,
		Group:          e.Group(Prefix),
		Service:        service,
		Settings:       settings,
		maxUploadBytes: DefaultMaxUploadBytes,
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Global().Module("api")
	}
	if c.Build == nil {
		c.Build = buildinfo.Current()
	}
	if settings != nil && settings.WebServer.MaxUploadBytes > 0 {
		c.maxUploadBytes = settings.WebServer.MaxUploadBytes
	}

	c.initRoutes()
	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"dataset routes", c.initDatasetRoutes},
		{"specimen routes", c.initSpecimenRoutes},
		{"taxon routes", c.initTaxonRoutes},
		{"image routes", c.initImageRoutes},
	}
	for _, initializer := range routeInitializers {
		c.logger.Debug("initializing routes", logger.String("group", initializer.name))
		initializer.fn()
	}
}

// HealthCheck reports liveness, build metadata and dataset state
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	status := map[string]any{
		"status":                 "healthy",
		"version":                c.Build.GetVersion(),
		"build_date":             c.Build.GetBuildDate(),
		"uptime":                 uptime.String(),
		"uptime_seconds":         uptime.Seconds(),
		"timestamp":              time.Now().Format(time.RFC3339),
		"remote_enabled":         c.Service.RemoteEnabled(),
		"identification_enabled": c.Service.IdentificationEnabled(),
		"dataset_loaded":         false,
	}
	if ds, err := c.Service.Dataset(); err == nil {
		status["dataset_loaded"] = true
		status["dataset_records"] = ds.Len()
	}
	return ctx.JSON(http.StatusOK, status)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// StatusFor maps an error category to the HTTP status reported for it
func StatusFor(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryMissingDataset:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryFileParsing, errors.CategoryMalformedLink:
		return http.StatusBadRequest
	case errors.CategorySchemaMismatch:
		return http.StatusUnprocessableEntity
	case errors.CategoryLimit:
		return http.StatusRequestEntityTooLarge
	case errors.CategoryRemoteFetch, errors.CategoryImageFetch, errors.CategoryIdentification,
		errors.CategoryNetwork, errors.CategoryHTTP:
		return http.StatusBadGateway
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryConfiguration:
		return http.StatusServiceUnavailable
	case errors.CategoryCancellation:
		// nginx convention for a client that went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an ErrorResponse with the status of its category
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	return c.handleErrorCode(ctx, err, message, StatusFor(err))
}

func (c *Controller) handleErrorCode(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code, mw.RequestID(ctx))

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	// Not-found answers are ordinary query outcomes
	if code < http.StatusInternalServerError {
		c.logger.Debug("API error", fields...)
	} else {
		c.logger.Error("API error", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// Shutdown releases controller resources
func (c *Controller) Shutdown() {
	c.logger.Info("API controller shut down")
}

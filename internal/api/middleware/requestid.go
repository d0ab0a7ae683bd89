package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/huam/biocurate/internal/logger"
)

// RequestIDKey is the echo context key holding the request id
const RequestIDKey = "request_id"

// NewRequestID assigns every request a UUID, honoring an incoming
// X-Request-ID. The id is stored in the echo context and the request context
// so module loggers pick it up as trace id.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(RequestIDKey, id)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// RequestID returns the id assigned by NewRequestID, or ""
func RequestID(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}

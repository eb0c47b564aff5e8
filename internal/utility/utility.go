package utility

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context keys set by the request middleware.
const (
	RequestIDKey = "request_id"
	LoggerKey    = "logger"
)

// GetRealIP is a helper function to get the user's real IP address
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// This header can be a list: "client, proxy1, proxy2"
	xForwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	xRealIP := c.Request().Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	return c.RealIP()
}

// GetLoggerFromContext returns the request-scoped logger, or the global
// logger when the middleware did not run.
func GetLoggerFromContext(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &log.Logger
}

// GetRequestIDFromContext safely retrieves the request ID from Echo context.
func GetRequestIDFromContext(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}

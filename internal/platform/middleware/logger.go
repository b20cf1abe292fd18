package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salon/salon/pkg/apierror"
)

// Paths excluded from request logging. Probes hit these every few seconds
// and would drown the booking traffic.
var quietPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
	"/metrics":   true,
}

// Logger emits one structured log line per request, leveled by outcome:
// info for success, warn for client errors, error for server errors. When
// the handler returned an error the status is resolved from the error
// itself, since the error handler has not written the response yet.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if quietPaths[c.Request().URL.Path] {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = apierror.StatusOf(err)
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn().Err(err)
			default:
				evt = logger.Info()
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

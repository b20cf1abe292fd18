package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salon/salon/pkg/apierror"
)

// Recovery turns a handler panic into a 500 rendered through the standard
// error envelope, logging the panic value and stack.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					rid, _ := c.Get("request_id").(string)
					logger.Error().
						Str("request_id", rid).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Str("panic", fmt.Sprintf("%v", r)).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")

					err = apierror.Internal("Internal server error")
				}
			}()
			return next(c)
		}
	}
}

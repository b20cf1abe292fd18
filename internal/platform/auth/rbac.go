package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that admits callers holding any of the
// given roles. Administrators pass every role check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := FromContext(c.Request().Context())
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, required := range roles {
				if session.Role == required || session.Role == "admin" {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// RequireLevel rejects accounts below the given privilege tier. It must run
// after Authenticate.
func RequireLevel(min domain.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			if user.Level < min {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

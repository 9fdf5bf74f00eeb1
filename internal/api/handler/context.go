package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/redeclipse/mastersession/internal/api/middleware"
	"github.com/redeclipse/mastersession/internal/core/domain"
)

// currentUser returns the account injected by the Authenticate middleware.
// Its absence means the route was mounted without authentication.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Clients
// match on the kind string, so domain errors are rendered verbatim.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes and error kinds.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

var statusByKind = map[error]int{
	domain.ErrLoginIncorrect: http.StatusUnauthorized,
	domain.ErrTokenMissing:   http.StatusBadRequest,
	domain.ErrTokenInvalid:   http.StatusUnauthorized,
	domain.ErrTokenExpired:   http.StatusUnauthorized,
	domain.ErrMissingFields:  http.StatusBadRequest,
	domain.ErrInvalidEmail:   http.StatusBadRequest,
	domain.ErrInvalidLevel:   http.StatusBadRequest,
	domain.ErrUserExists:     http.StatusConflict,
	domain.ErrUserNotFound:   http.StatusNotFound,
	domain.ErrForbidden:      http.StatusForbidden,
	domain.ErrNoSuchServer:   http.StatusNotFound,
	domain.ErrInvalidPort:    http.StatusBadRequest,
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for sentinel, code := range statusByKind {
		if errors.Is(err, sentinel) {
			return code, sentinel.Error()
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/redeclipse/mastersession/internal/api/metrics"
	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// UserHandler serves the session endpoints used by game clients.
type UserHandler struct {
	users ports.UserService
	log   zerolog.Logger
}

func NewUserHandler(users ports.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Session validates a token and returns the profile behind it.
//
// @Summary      Look up the session behind a token
// @Tags         user
// @Produce      json
// @Param        token  query     string  true  "Session token"
// @Success      200    {object}  domain.AuthResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /user [get]
func (h *UserHandler) Session(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.Lookup(c.Request().Context(), req.Token)
	metrics.SessionLookupsTotal.WithLabelValues(tokenOutcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.AuthResponse{User: user.Profile()})
}

// Login authenticates a user and issues a session token.
//
// @Summary      Log in
// @Tags         user
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Account name"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  domain.AuthResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Router       /user/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("incorrect").Inc()
		return err
	}

	token, user, err := h.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrLoginIncorrect) {
			result = "incorrect"
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, domain.AuthResponse{Token: token, User: user.Profile()})
}

// Logout revokes a session token.
//
// @Summary      Log out
// @Tags         user
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        token  formData  string  true  "Session token"
// @Success      200    {object}  logoutResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /user/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := h.users.Logout(c.Request().Context(), req.Token)
	metrics.LogoutsTotal.WithLabelValues(tokenOutcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}

// Register creates a new account at the lowest tier.
//
// @Summary      Register a new account
// @Tags         user
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Account name"
// @Param        password  formData  string  true  "Password"
// @Param        email     formData  string  true  "Email address"
// @Success      201       {object}  domain.RegisterResponse
// @Failure      400       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Router       /user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	if _, err := h.users.Register(c.Request().Context(), req.Username, req.Password, req.Email); err != nil {
		result := "rejected"
		if !isClientError(err) {
			result = "error"
		}
		metrics.RegistrationsTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.log.Info().Str("username", req.Username).Msg("account registered")
	return c.JSON(http.StatusCreated, domain.RegisterResponse{Success: true})
}

// tokenOutcome labels the result of a token-bearing request.
func tokenOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTokenMissing):
		return "missing"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrMissingFields) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrUserExists)
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
}

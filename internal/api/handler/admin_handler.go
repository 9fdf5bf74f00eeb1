package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/redeclipse/mastersession/internal/api/metrics"
	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// AdminHandler serves account management for privileged users.
type AdminHandler struct {
	users ports.UserService
}

func NewAdminHandler(users ports.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// SetLevel changes the privilege tier of an account.
//
// @Summary      Set an account's privilege tier
// @Tags         admin
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Account name"
// @Param        level     formData  string  true  "Tier label (e.g. moderator) or index"
// @Success      200       {object}  profileResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /admin/users/{username}/level [put]
func (h *AdminHandler) SetLevel(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req setLevelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	level, err := parseLevel(req.Level)
	if err != nil {
		return err
	}

	user, err := h.users.SetLevel(c.Request().Context(), actor, req.Username, level)
	if err != nil {
		return err
	}

	metrics.LevelChangesTotal.WithLabelValues(level.String()).Inc()
	return c.JSON(http.StatusOK, profileResponse{User: user.Profile()})
}

// parseLevel accepts either a tier label or its numeric index.
func parseLevel(raw string) (domain.Level, error) {
	if level, ok := domain.ParseLevel(raw); ok {
		return level, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !domain.Level(n).Valid() {
		return 0, domain.ErrInvalidLevel
	}
	return domain.Level(n), nil
}

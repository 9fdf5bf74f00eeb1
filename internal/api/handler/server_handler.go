package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/redeclipse/mastersession/internal/api/metrics"
	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// ServerHandler serves the game server list and the announcements that
// keep it current.
type ServerHandler struct {
	servers ports.ServerService
}

func NewServerHandler(servers ports.ServerService) *ServerHandler {
	return &ServerHandler{servers: servers}
}

// List returns the servers that are still sending heartbeats.
//
// @Summary      List live game servers
// @Tags         server
// @Produce      json
// @Success      200  {object}  serverListResponse
// @Router       /serverlist [get]
func (h *ServerHandler) List(c echo.Context) error {
	servers, err := h.servers.List(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.ListedServers.Set(float64(len(servers)))
	return c.JSON(http.StatusOK, serverListResponse{Servers: servers})
}

// Register announces a game server. Its address is the caller's.
//
// @Summary      Announce a game server
// @Tags         server
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        name  formData  string   true  "Server name"
// @Param        port  formData  integer  true  "Game port"
// @Success      200   {object}  serverKeyResponse
// @Failure      400   {object}  errorResponse
// @Router       /server/register [post]
func (h *ServerHandler) Register(c echo.Context) error {
	var req registerServerRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPort
	}
	if err := c.Validate(&req); err != nil {
		metrics.ServerAnnouncementsTotal.WithLabelValues("register", "rejected").Inc()
		return err
	}

	server, err := h.servers.Register(c.Request().Context(), req.Name, c.RealIP(), req.Port)
	if err != nil {
		metrics.ServerAnnouncementsTotal.WithLabelValues("register", announceOutcome(err)).Inc()
		return err
	}
	metrics.ServerAnnouncementsTotal.WithLabelValues("register", "ok").Inc()
	return c.JSON(http.StatusOK, serverKeyResponse{Key: server.Key})
}

// Heartbeat keeps a registered server listed.
//
// @Summary      Refresh a game server's listing
// @Tags         server
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        key  formData  string  true  "Key returned by /server/register"
// @Success      200  {object}  logoutResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /server/heartbeat [post]
func (h *ServerHandler) Heartbeat(c echo.Context) error {
	var req heartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.ServerAnnouncementsTotal.WithLabelValues("heartbeat", "rejected").Inc()
		return err
	}

	err := h.servers.Heartbeat(c.Request().Context(), req.Key)
	if err != nil {
		metrics.ServerAnnouncementsTotal.WithLabelValues("heartbeat", announceOutcome(err)).Inc()
		return err
	}
	metrics.ServerAnnouncementsTotal.WithLabelValues("heartbeat", "ok").Inc()
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}

func announceOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSuchServer):
		return "unknown"
	case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrInvalidPort):
		return "rejected"
	default:
		return "error"
	}
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/redeclipse/mastersession/docs"
	"github.com/redeclipse/mastersession/internal/api/handler"
	"github.com/redeclipse/mastersession/internal/api/metrics"
	"github.com/redeclipse/mastersession/internal/api/middleware"
	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Users   ports.UserService
	Servers ports.ServerService
	Log     zerolog.Logger
	// Pingers are checked by the readiness probe.
	Pingers []handler.Pinger
	// Registry receives the HTTP and domain metrics. A fresh registry with
	// the Go and process collectors is created when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics.MustRegister(reg)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:                 "mastersession",
		Subsystem:                 "http",
		Registerer:                reg,
		DoNotUseRequestPathFor404: true,
	}))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(deps.Users, deps.Log)
	adminHandler := handler.NewAdminHandler(deps.Users)
	serverHandler := handler.NewServerHandler(deps.Servers)
	healthHandler := handler.NewHealthHandler(deps.Pingers...)

	// --- Session routes ---
	e.GET("/user", userHandler.Session)
	e.POST("/user/login", userHandler.Login)
	e.POST("/user/logout", userHandler.Logout)
	e.POST("/user/register", userHandler.Register)

	// --- Game server list ---
	e.GET("/serverlist", serverHandler.List)
	e.POST("/server/register", serverHandler.Register)
	e.POST("/server/heartbeat", serverHandler.Heartbeat)

	// --- Administration (bearer token, administrator tier and above) ---
	admin := e.Group("/admin",
		middleware.Authenticate(deps.Users),
		middleware.RequireLevel(domain.LevelAdministrator),
	)
	admin.PUT("/users/:username/level", adminHandler.SetLevel)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

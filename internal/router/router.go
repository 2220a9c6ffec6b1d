// Package router registers the engine's HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/config"
	"github.com/iliyamo/event-seat-engine/internal/handler"
	"github.com/iliyamo/event-seat-engine/internal/middleware"
)

// Deps is everything the routes need.  Redis may be nil, which disables
// rate limiting.
type Deps struct {
	Handler           *handler.Handler
	Health            map[string]handler.Check
	JWTSecret         string
	NotificationToken string
	RateLimit         config.RateLimitConfig
	Redis             redis.Scripter
	Log               logrus.FieldLogger
}

// Register installs every route on e.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestLogger(d.Log))
	e.GET("/healthz", handler.Health(d.Health))

	registerPublic(e, d.Handler)
	registerReservations(e, d)
	registerAdmin(e, d)
}

// registerPublic exposes read-only catalog and seat views without a token.
func registerPublic(e *echo.Echo, h *handler.Handler) {
	g := e.Group("/v1/events")
	g.GET("", h.ListEvents)
	g.GET("/:id", h.GetEvent)
	g.GET("/:id/seats", h.Grid)
	g.GET("/:id/seats/:row/:col", h.Seat)
}

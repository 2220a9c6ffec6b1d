package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-engine/internal/middleware"
)

// registerReservations adds the hold and sale endpoints.  Both need a
// token and are rate limited per user and route.  Middleware is attached
// per route because the /v1/events prefix is shared with public routes.
func registerReservations(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RateLimit(d.RateLimit, d.Redis, d.Log.WithField("component", "ratelimit")),
	}
	e.POST("/v1/events/:id/holds", d.Handler.Hold, mw...)
	e.POST("/v1/events/:id/sales", d.Handler.Sell, mw...)
}

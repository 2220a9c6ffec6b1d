package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-engine/internal/middleware"
)

func registerAdmin(e *echo.Echo, d Deps) {
	admin := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	admin.POST("/sync", d.Handler.Sync)
	admin.POST("/events/:id/seats/sync", d.Handler.SyncSeats)
	admin.GET("/events/:id/sales", d.Handler.ListSales)

	// called by the authority when its catalog changes
	e.POST("/v1/authority/notifications/events", d.Handler.AuthorityNotification,
		middleware.RequireSharedToken(d.NotificationToken))
}

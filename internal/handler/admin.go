package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-engine/internal/service"
)

// Sync handles POST /v1/admin/sync and runs a catalog pass inline.
func (h *Handler) Sync(c echo.Context) error {
	report, err := h.eng.RunCatalogSync(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// SyncSeats handles POST /v1/admin/events/:id/seats/sync.
func (h *Handler) SyncSeats(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	n, err := h.eng.SyncEventSeats(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "seats": n})
}

// AuthorityNotification handles POST /v1/authority/notifications/events.
// The body is informational; any call triggers a catalog pass.  A pass
// already running is reported as 202 since it will see the change.
func (h *Handler) AuthorityNotification(c echo.Context) error {
	report, err := h.eng.RunCatalogSync(c.Request().Context())
	if errors.Is(err, service.ErrSyncInProgress) {
		return c.JSON(http.StatusAccepted, echo.Map{"status": "sync already running"})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Grid handles GET /v1/events/:id/seats.  The grid is recomputed from the
// authority on every call.
func (h *Handler) Grid(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	grid, err := h.eng.LiveGrid(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, grid)
}

// Seat handles GET /v1/events/:id/seats/:row/:col.
func (h *Handler) Seat(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	row, col, ok := position(c)
	if !ok {
		return badRequest(c, "invalid seat position")
	}
	seat, err := h.eng.LiveSeat(c.Request().Context(), id, row, col)
	if err != nil {
		return h.fail(c, err)
	}
	if seat == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat outside the event grid"})
	}
	return c.JSON(http.StatusOK, seat)
}

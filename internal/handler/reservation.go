package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/middleware"
	"github.com/iliyamo/event-seat-engine/internal/model"
)

type holdRequest struct {
	Seats []model.Position `json:"seats"`
}

type saleRequest struct {
	Seats []model.SeatSaleRequest `json:"seats"`
}

// Hold handles POST /v1/events/:id/holds.  A refusal by the authority is
// a 200 with accepted=false.
func (h *Handler) Hold(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.eng.HoldMany(c.Request().Context(), id, body.Seats)
	if err != nil {
		return h.fail(c, err)
	}
	h.log.WithFields(logrus.Fields{
		"event_id": id, "user_id": middleware.UserID(c), "seats": len(body.Seats), "accepted": res.Accepted,
	}).Info("hold processed")
	return c.JSON(http.StatusOK, res)
}

// Sell handles POST /v1/events/:id/sales.
func (h *Handler) Sell(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var body saleRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	out, err := h.eng.Sell(c.Request().Context(), id, body.Seats)
	if err != nil {
		return h.fail(c, err)
	}
	h.log.WithFields(logrus.Fields{
		"event_id": id, "user_id": middleware.UserID(c), "seats": len(body.Seats),
		"accepted": out.Accepted, "remote_sale_id": out.RemoteSaleID,
	}).Info("sale processed")
	status := http.StatusOK
	if out.Accepted {
		status = http.StatusCreated
	}
	return c.JSON(status, toSaleOutcome(out))
}

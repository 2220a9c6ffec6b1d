// Package handler exposes the engine over HTTP.  Handlers only parse
// requests and map outcomes to status codes; every rule lives in service.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/model"
	"github.com/iliyamo/event-seat-engine/internal/repository"
	"github.com/iliyamo/event-seat-engine/internal/service"
)

// Engine is the subset of service.Engine used by the handlers.
type Engine interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, eventID uint64) (*model.Event, error)
	LiveGrid(ctx context.Context, eventID uint64) (model.Grid, error)
	LiveSeat(ctx context.Context, eventID uint64, row, col int) (*model.LiveSeat, error)
	HoldMany(ctx context.Context, eventID uint64, seats []model.Position) (model.HoldResult, error)
	Sell(ctx context.Context, eventID uint64, seats []model.SeatSaleRequest) (model.SaleOutcome, error)
	ListSales(ctx context.Context, eventID uint64) ([]model.Sale, error)
	RunCatalogSync(ctx context.Context) (model.SyncReport, error)
	SyncEventSeats(ctx context.Context, eventID uint64) (int, error)
}

var _ Engine = (*service.Engine)(nil)

// Handler groups every endpoint around one Engine.
type Handler struct {
	eng Engine
	log logrus.FieldLogger
}

// New returns a Handler serving engine.
func New(eng Engine, log logrus.FieldLogger) *Handler {
	return &Handler{eng: eng, log: log}
}

// fail maps an engine error onto a status code.
func (h *Handler) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		status = http.StatusNotFound
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsState(err), errors.Is(err, service.ErrSyncInProgress):
		status = http.StatusConflict
	case service.IsIntegration(err):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		h.log.WithError(err).WithField("path", c.Path()).Error("request failed")
		if status == http.StatusInternalServerError {
			return c.JSON(status, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func eventID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func position(c echo.Context) (row, col int, ok bool) {
	row, err1 := strconv.Atoi(c.Param("row"))
	col, err2 := strconv.Atoi(c.Param("col"))
	return row, col, err1 == nil && err2 == nil
}

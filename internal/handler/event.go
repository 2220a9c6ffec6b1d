package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-engine/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// eventQuery filters and paginates the event list.
type eventQuery struct {
	Title    string // case-insensitive substring
	Active   *bool
	Page     int
	PageSize int
}

func parseEventQuery(c echo.Context) (eventQuery, bool) {
	q := eventQuery{Title: strings.ToLower(strings.TrimSpace(c.QueryParam("title"))), Page: 1, PageSize: defaultPageSize}
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, false
		}
		q.Active = &b
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, false
		}
		q.Page = n
	}
	if v := c.QueryParam("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, false
		}
		q.PageSize = min(n, maxPageSize)
	}
	return q, true
}

func (q eventQuery) apply(events []model.Event) (page []model.Event, total int) {
	matched := events[:0:0]
	for _, e := range events {
		if q.Active != nil && e.IsActive != *q.Active {
			continue
		}
		if q.Title != "" && !strings.Contains(strings.ToLower(e.Title), q.Title) {
			continue
		}
		matched = append(matched, e)
	}
	// compare in pages; (Page-1)*PageSize overflows for huge pages
	if q.Page-1 >= (len(matched)+q.PageSize-1)/q.PageSize {
		return nil, len(matched)
	}
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(matched))
	return matched[start:end], len(matched)
}

// ListEvents handles GET /v1/events?title=&active=&page=&page_size=.
func (h *Handler) ListEvents(c echo.Context) error {
	q, ok := parseEventQuery(c)
	if !ok {
		return badRequest(c, "invalid query parameters")
	}
	events, err := h.eng.ListEvents(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	page, total := q.apply(events)
	out := make([]eventResponse, 0, len(page))
	for _, e := range page {
		out = append(out, toEvent(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events":    out,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetEvent handles GET /v1/events/:id.
func (h *Handler) GetEvent(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ev, err := h.eng.GetEvent(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toEvent(*ev))
}

// ListSales handles GET /v1/admin/events/:id/sales.
func (h *Handler) ListSales(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	sales, err := h.eng.ListSales(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSale(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": out})
}

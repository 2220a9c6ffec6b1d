package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Health reports "ok" when every check passes and 503 otherwise.  Checks
// run with a one second budget each.
func Health(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
			err := check(ctx)
			cancel()
			if err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		return c.JSON(status, echo.Map{"status": overall, "checks": result})
	}
}

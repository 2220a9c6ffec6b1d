package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated subject, or "anon" on public routes.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// Role returns the authenticated role in upper case, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

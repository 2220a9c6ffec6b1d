package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthorityTokenHeader carries the shared secret on authority callbacks.
const AuthorityTokenHeader = "X-Authority-Token"

// RequireSharedToken rejects requests whose AuthorityTokenHeader does not
// equal token.  An empty token rejects everything, so an unconfigured
// deployment never exposes the callback.
func RequireSharedToken(token string) echo.MiddlewareFunc {
	want := []byte(token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(AuthorityTokenHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authority token"})
			}
			return next(c)
		}
	}
}

package middleware

// identity.go defines helpers for reading the authenticated identity that
// JWTAuth stored in the Echo context. Handlers use these instead of
// repeating claim type assertions.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CurrentUserID returns the authenticated user's ID from the context.
// JWT numeric claims decode as float64; string subjects are parsed as a
// fallback. The second return value reports whether an ID was present.
func CurrentUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// CurrentRole returns the authenticated user's role claim, or "" when
// no role is stored in the context.
func CurrentRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}

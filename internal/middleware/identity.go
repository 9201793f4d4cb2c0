package middleware

// identity.go provides a userID extraction helper shared by the rate
// limiter and response cache, so authenticated users get per-user
// buckets and cache keys while anonymous traffic shares "guest".

import "github.com/labstack/echo/v4"

// userID returns the authenticated user's id from the context, or
// "guest" when the request carries no valid token.
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "guest"
}

package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// getUserID extracts the authenticated user's id from the context.
// JWTAuth stores the sub claim there as a string UUID.
func getUserID(c echo.Context) (string, error) {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("invalid user_id in context")
}

// getRole returns the authenticated user's role, empty when absent.
func getRole(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}

// isAdmin reports whether the current request carries the ADMIN role.
func isAdmin(c echo.Context) bool { return getRole(c) == model.RoleAdmin }

// parsePagination reads page/per_page query parameters and returns
// limit and offset.  Values are clamped to 1..100 per page.
func parsePagination(c echo.Context) (limit, offset int) {
	page := 1
	perPage := 20
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage, (page - 1) * perPage
}

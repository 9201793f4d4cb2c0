package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and the OWNER role (admins pass the
// gate too); per-restaurant ownership is verified in the handlers.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)

	// ---- Restaurants ----
	g.POST("/restaurants", o.CreateRestaurant)
	// NOTE: reading restaurants and their tables is handled by the
	// public browse API; registering owner-scoped GETs here would
	// collide with those routes.
	g.GET("/me/restaurants", o.ListMyRestaurants)
	g.PUT("/restaurants/:id", o.UpdateRestaurant)
	g.PATCH("/restaurants/:id", o.UpdateRestaurant) // alias for clients that use PATCH
	g.DELETE("/restaurants/:id", o.DeleteRestaurant) // soft delete

	// ---- Tables ----
	g.POST("/restaurants/:id/tables", o.CreateTable)
	g.GET("/restaurants/:id/tables/:table_id", o.GetTable)
	g.PUT("/restaurants/:id/tables/:table_id", o.UpdateTable)
	g.PATCH("/restaurants/:id/tables/:table_id", o.UpdateTable)
	g.DELETE("/restaurants/:id/tables/:table_id", o.DeleteTable)
}

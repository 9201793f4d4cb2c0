package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterReservations registers the booking endpoints under /v1.
// Any authenticated role may call them; the handlers decide who may
// touch which reservation (the booking client, the restaurant owner,
// or an admin).
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, rv *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleOwner),
	)

	// ---- Reservations ----
	g.POST("/reservations", h.Create)
	g.GET("/reservations", h.List)
	g.GET("/reservations/:id", h.Get)
	g.PUT("/reservations/:id", h.Update)
	g.PATCH("/reservations/:id", h.Patch)
	g.DELETE("/reservations/:id", h.Delete)
	// Pure availability probe; writes nothing.
	g.POST("/reservations/check", h.Check)

	// ---- Reviews ----
	g.POST("/restaurants/:id/reviews", rv.Create)
	g.PUT("/reviews/:review_id", rv.Update)
	g.DELETE("/reviews/:review_id", rv.Delete)
}

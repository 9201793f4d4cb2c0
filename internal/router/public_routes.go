package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
)

// RegisterPublic registers the unauthenticated browse endpoints: the
// restaurant directory with search filters, tables, reviews and the
// occupied-slot calendar of a table.  These routes sit behind the
// Redis response cache so repeated guest browsing stays cheap.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1", middleware.NewRedisCache(cacheCfg, rdb))

	g.GET("/restaurants", p.ListRestaurants)
	g.GET("/restaurants/:id", p.GetRestaurant)
	g.GET("/restaurants/:id/tables", p.ListTables)
	g.GET("/restaurants/:id/reviews", p.ListReviews)
	// Occupied intervals of one table on a given day (?date=YYYY-MM-DD).
	g.GET("/restaurants/:id/tables/:table_id/slots", p.ListOccupiedSlots)
}

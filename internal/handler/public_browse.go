package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: the
// restaurant directory, tables, reviews and occupied-slot calendars.
// These routes sit behind the Redis response cache.
type PublicHandler struct {
	Restaurants *repository.RestaurantRepo
	Tables      *repository.TableRepo
	Reviews     *repository.ReviewRepo
	Engine      *booking.Engine
}

func NewPublicHandler(restaurants *repository.RestaurantRepo, tables *repository.TableRepo, reviews *repository.ReviewRepo, engine *booking.Engine) *PublicHandler {
	if restaurants == nil || tables == nil || reviews == nil || engine == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Restaurants: restaurants, Tables: tables, Reviews: reviews, Engine: engine}
}

type restaurantResp struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Phone        *string `json:"phone,omitempty"`
	Cuisine      string  `json:"cuisine"`
	OpeningHours string  `json:"opening_hours"`
	Description  *string `json:"description,omitempty"`
	Photos       *string `json:"photos,omitempty"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"review_count"`
}

func (h *PublicHandler) toRestaurantResp(ctx context.Context, r *model.Restaurant) restaurantResp {
	avg, count, err := h.Reviews.AverageRating(ctx, r.ID)
	if err != nil {
		avg, count = 0, 0
	}
	return restaurantResp{
		ID:           r.ID,
		Name:         r.Name,
		Address:      r.Address,
		City:         r.City,
		Phone:        r.Phone,
		Cuisine:      r.Cuisine,
		OpeningHours: r.OpeningHours,
		Description:  r.Description,
		Photos:       r.Photos,
		Rating:       avg,
		ReviewCount:  count,
	}
}

// ListRestaurants is the public directory with search, cuisine and
// city filters plus pagination.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	limit, offset := parsePagination(c)
	f := repository.RestaurantFilter{
		Search:  c.QueryParam("search"),
		Cuisine: c.QueryParam("cuisine"),
		City:    c.QueryParam("city"),
		Limit:   limit,
		Offset:  offset,
	}
	list, err := h.Restaurants.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total, err := h.Restaurants.Count(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]restaurantResp, 0, len(list))
	for i := range list {
		out = append(out, h.toRestaurantResp(ctx, &list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"restaurants": out,
		"total":       total,
	})
}

// GetRestaurant returns a single restaurant's public profile.
func (h *PublicHandler) GetRestaurant(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Restaurants.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, h.toRestaurantResp(ctx, r))
}

type tableResp struct {
	ID       string `json:"id"`
	Number   uint32 `json:"number"`
	Capacity uint32 `json:"capacity"`
	Status   string `json:"status"`
}

// ListTables returns the tables of a restaurant so clients can pick
// one to book.
func (h *PublicHandler) ListTables(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Restaurants.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	tables, err := h.Tables.ListByRestaurant(ctx, r.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]tableResp, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableResp{ID: t.ID, Number: t.Number, Capacity: t.Capacity, Status: t.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// ListReviews returns the reviews of a restaurant, newest first.
func (h *PublicHandler) ListReviews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Restaurants.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	limit, offset := parsePagination(c)
	reviews, err := h.Reviews.ListByRestaurant(ctx, r.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	avg, count, err := h.Reviews.AverageRating(ctx, r.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reviews":      reviews,
		"rating":       avg,
		"review_count": count,
	})
}

// ListOccupiedSlots shows the occupied intervals of a table on a
// calendar day (date=YYYY-MM-DD, default today UTC).  Clients render
// the gaps as bookable slots.
func (h *PublicHandler) ListOccupiedSlots(c echo.Context) error {
	day := time.Now().UTC()
	if ds := c.QueryParam("date"); ds != "" {
		parsed, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		day = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	wins, err := h.Engine.ListOccupiedSlots(ctx, c.Param("table_id"), c.Param("id"), day)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     day.Format("2006-01-02"),
		"occupied": wins,
	})
}

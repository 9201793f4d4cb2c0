package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// OwnerHandler bundles repositories for owners managing their
// restaurants and tables.  Every mutating operation verifies that the
// caller owns the target restaurant; admins bypass the check.
type OwnerHandler struct {
	Restaurants *repository.RestaurantRepo
	Tables      *repository.TableRepo
}

func NewOwnerHandler(restaurants *repository.RestaurantRepo, tables *repository.TableRepo) *OwnerHandler {
	if restaurants == nil || tables == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Restaurants: restaurants, Tables: tables}
}

type restaurantReq struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	Phone          *string `json:"phone"`
	Cuisine        string  `json:"cuisine"`
	OpeningHours   string  `json:"opening_hours"`
	Description    *string `json:"description"`
	Photos         *string `json:"photos"`
	ReservationMin *uint32 `json:"reservation_duration_min"`
	ToleranceMin   *uint32 `json:"late_tolerance_min"`
}

func (r restaurantReq) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name required"
	}
	if strings.TrimSpace(r.Address) == "" {
		return "address required"
	}
	if strings.TrimSpace(r.City) == "" {
		return "city required"
	}
	return ""
}

// requireOwnership loads the restaurant and checks the caller owns it.
// Returns nil plus a handled response on failure.
func (h *OwnerHandler) requireOwnership(ctx context.Context, c echo.Context, restaurantID string) (*model.Restaurant, error) {
	res, err := h.Restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) {
		uid, err := getUserID(c)
		if err != nil || res.OwnerID != uid {
			return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return res, nil
}

// CreateRestaurant registers a new restaurant owned by the caller.
func (h *OwnerHandler) CreateRestaurant(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res := &model.Restaurant{
		OwnerID:        uid,
		Name:           strings.TrimSpace(req.Name),
		Address:        strings.TrimSpace(req.Address),
		City:           strings.TrimSpace(req.City),
		Phone:          req.Phone,
		Cuisine:        strings.TrimSpace(req.Cuisine),
		OpeningHours:   strings.TrimSpace(req.OpeningHours),
		Description:    req.Description,
		Photos:         req.Photos,
		ReservationMin: req.ReservationMin,
		ToleranceMin:   req.ToleranceMin,
	}
	if err := h.Restaurants.Create(ctx, res); err != nil {
		if err == repository.ErrDuplicateName {
			return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, res)
}

// ListMyRestaurants returns the caller's restaurants.
func (h *OwnerHandler) ListMyRestaurants(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Restaurants.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": list})
}

// UpdateRestaurant rewrites a restaurant's details.
func (h *OwnerHandler) UpdateRestaurant(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, handled := h.requireOwnership(ctx, c, c.Param("id"))
	if res == nil {
		return handled
	}
	res.Name = strings.TrimSpace(req.Name)
	res.Address = strings.TrimSpace(req.Address)
	res.City = strings.TrimSpace(req.City)
	res.Phone = req.Phone
	res.Cuisine = strings.TrimSpace(req.Cuisine)
	res.OpeningHours = strings.TrimSpace(req.OpeningHours)
	res.Description = req.Description
	res.Photos = req.Photos
	res.ReservationMin = req.ReservationMin
	res.ToleranceMin = req.ToleranceMin

	if err := h.Restaurants.Update(ctx, res); err != nil {
		if err == repository.ErrDuplicateName {
			return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant name already exists"})
		}
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteRestaurant soft-deletes a restaurant.  Reservation history is
// preserved; the restaurant simply disappears from every listing.
func (h *OwnerHandler) DeleteRestaurant(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, handled := h.requireOwnership(ctx, c, c.Param("id"))
	if res == nil {
		return handled
	}
	if err := h.Restaurants.SoftDelete(ctx, res.ID); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

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

type tableReq struct {
	Number   uint32 `json:"number"`
	Capacity uint32 `json:"capacity"`
	Status   string `json:"status"`
}

var tableStatuses = map[string]bool{
	"AVAILABLE": true,
	"OCCUPIED":  true,
	"RESERVED":  true,
}

func (r tableReq) validate() string {
	if r.Number == 0 {
		return "number must be a positive integer"
	}
	if r.Capacity == 0 {
		return "capacity must be a positive integer"
	}
	if r.Status != "" && !tableStatuses[strings.ToUpper(r.Status)] {
		return "status must be AVAILABLE, OCCUPIED or RESERVED"
	}
	return ""
}

// CreateTable adds a table to one of the caller's restaurants.
func (h *OwnerHandler) CreateTable(c echo.Context) error {
	var req tableReq
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
	t := &model.Table{
		RestaurantID: res.ID,
		Number:       req.Number,
		Capacity:     req.Capacity,
		Status:       strings.ToUpper(req.Status),
	}
	if err := h.Tables.Create(ctx, t); err != nil {
		if err == repository.ErrDuplicateTable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists for this restaurant"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

// GetTable returns one table of one of the caller's restaurants.
func (h *OwnerHandler) GetTable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, handled := h.requireOwnership(ctx, c, c.Param("id"))
	if res == nil {
		return handled
	}
	t, err := h.Tables.GetByID(ctx, res.ID, c.Param("table_id"))
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTable rewrites a table's number, capacity and status.
func (h *OwnerHandler) UpdateTable(c echo.Context) error {
	var req tableReq
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
	t, err := h.Tables.GetByID(ctx, res.ID, c.Param("table_id"))
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	t.Number = req.Number
	t.Capacity = req.Capacity
	if req.Status != "" {
		t.Status = strings.ToUpper(req.Status)
	}
	if err := h.Tables.Update(ctx, t); err != nil {
		if err == repository.ErrDuplicateTable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists for this restaurant"})
		}
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable removes a table.
func (h *OwnerHandler) DeleteTable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, handled := h.requireOwnership(ctx, c, c.Param("id"))
	if res == nil {
		return handled
	}
	if err := h.Tables.Delete(ctx, res.ID, c.Param("table_id")); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

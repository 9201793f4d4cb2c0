package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// ReviewHandler serves restaurant reviews.  Any authenticated client
// may review a restaurant once; edits and deletions are restricted to
// the author, with admins allowed to delete anything.
type ReviewHandler struct {
	Reviews     *repository.ReviewRepo
	Restaurants *repository.RestaurantRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo, restaurants *repository.RestaurantRepo) *ReviewHandler {
	if reviews == nil || restaurants == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews, Restaurants: restaurants}
}

type reviewReq struct {
	Rating  uint8   `json:"rating"`
	Comment *string `json:"comment"`
}

func (r reviewReq) validate() string {
	if r.Rating < 1 || r.Rating > 5 {
		return "rating must be between 1 and 5"
	}
	return ""
}

type reviewResp struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurant_id"`
	UserID       string  `json:"user_id"`
	Rating       uint8   `json:"rating"`
	Comment      *string `json:"comment,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toReviewResp(r *model.Review) reviewResp {
	return reviewResp{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		UpdatedAt:    r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// Create posts a review for a restaurant.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	restaurant, err := h.Restaurants.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rev := &model.Review{
		RestaurantID: restaurant.ID,
		UserID:       uid,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}
	if err := h.Reviews.Create(ctx, rev); err != nil {
		if err == repository.ErrDuplicateReview {
			return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this restaurant"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toReviewResp(rev))
}

// Update edits the caller's review.
func (h *ReviewHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev := &model.Review{ID: c.Param("review_id"), UserID: uid, Rating: req.Rating, Comment: req.Comment}
	if err := h.Reviews.Update(ctx, rev); err != nil {
		switch err {
		case repository.ErrReviewNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toReviewResp(rev))
}

// Delete removes a review (author or admin).
func (h *ReviewHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Delete(ctx, c.Param("review_id"), uid, isAdmin(c)); err != nil {
		switch err {
		case repository.ErrReviewNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

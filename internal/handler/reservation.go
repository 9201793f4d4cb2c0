package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// ReservationHandler serves the booking endpoints.  All availability
// and conflict logic lives in the booking engine; the handler binds
// requests, enforces who may act on whose reservation, and maps
// engine error kinds to HTTP statuses.
type ReservationHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
	Restaurants  *repository.RestaurantRepo
	Users        *repository.UserRepo
}

func NewReservationHandler(engine *booking.Engine, reservations *repository.ReservationRepo, restaurants *repository.RestaurantRepo, users *repository.UserRepo) *ReservationHandler {
	if engine == nil || reservations == nil || restaurants == nil || users == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Reservations: reservations, Restaurants: restaurants, Users: users}
}

// bookingStatus maps an engine error kind to an HTTP status code.
func bookingStatus(err error) int {
	switch booking.KindOf(err) {
	case booking.KindValidation, booking.KindCapacityExceeded, booking.KindInvalidInterval:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bookingError renders an engine error.  Conflicts additionally carry
// the blocking window so clients can offer the next free slot.
func bookingError(c echo.Context, err error) error {
	body := echo.Map{"error": string(booking.KindOf(err)), "message": err.Error()}
	if win := booking.ConflictWindow(err); win != nil {
		body["conflict"] = win
	}
	return c.JSON(bookingStatus(err), body)
}

// reservationResp is the wire shape of a single reservation.  Model
// structs carry no json tags, so handlers own the response format.
type reservationResp struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	TableID      string    `json:"table_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	PartySize    uint32    `json:"party_size"`
	Notes        *string   `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:           r.ID,
		UserID:       r.UserID,
		RestaurantID: r.RestaurantID,
		TableID:      r.TableID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		PartySize:    r.PartySize,
		Notes:        r.Notes,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

var reservationStatuses = map[string]bool{
	model.ReservationPending:   true,
	model.ReservationConfirmed: true,
	model.ReservationCancelled: true,
	model.ReservationCompleted: true,
}

type reservationReq struct {
	UserID       string  `json:"user_id"`
	RestaurantID string  `json:"restaurant_id"`
	TableID      string  `json:"table_id"`
	Start        string  `json:"start_time"`
	End          string  `json:"end_time"`
	PartySize    uint32  `json:"party_size"`
	Notes        *string `json:"notes"`
	Status       string  `json:"status"`
}

// resolveBookingUser decides whose reservation this is.  Clients
// always book for themselves; owners and admins may pass user_id for
// walk-in or phone bookings, which must name an existing user.
func (h *ReservationHandler) resolveBookingUser(ctx context.Context, c echo.Context, requested string) (string, error) {
	uid, err := getUserID(c)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	role := getRole(c)
	if requested == "" || requested == uid || role == model.RoleClient {
		return uid, nil
	}
	if _, err := h.Users.GetByID(ctx, requested); err != nil {
		if err == repository.ErrUserNotFound {
			return "", echo.NewHTTPError(http.StatusBadRequest, "user_id does not name an existing user")
		}
		return "", echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	return requested, nil
}

// Create books a reservation.  When end_time is omitted it is derived
// from the restaurant's configured default duration.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != "" && !reservationStatuses[req.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status value"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	userID, err := h.resolveBookingUser(ctx, c, strings.TrimSpace(req.UserID))
	if err != nil {
		return err
	}

	if strings.TrimSpace(req.End) == "" && strings.TrimSpace(req.Start) != "" && req.RestaurantID != "" {
		start, perr := booking.ParseTimestamp(req.Start)
		if perr == nil {
			defs, derr := h.Engine.ReservationDefaults(ctx, req.RestaurantID)
			if derr != nil {
				return bookingError(c, derr)
			}
			req.End = start.Add(time.Duration(defs.DurationMin) * time.Minute).Format("2006-01-02 15:04:05")
		}
	}

	res, err := h.Engine.Create(ctx, booking.Draft{
		UserID:       userID,
		RestaurantID: strings.TrimSpace(req.RestaurantID),
		TableID:      strings.TrimSpace(req.TableID),
		Start:        req.Start,
		End:          req.End,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		Status:       req.Status,
	})
	if err != nil {
		return bookingError(c, err)
	}

	h.publishBooked(res)
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// publishBooked emits a ReservationBookedEvent.  Publishing is best
// effort: the reservation already committed, so broker failures are
// only logged inside the publisher.
func (h *ReservationHandler) publishBooked(res *model.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev := queue.ReservationBookedEvent{
			ReservationID: res.ID,
			UserID:        res.UserID,
			RestaurantID:  res.RestaurantID,
			TableID:       res.TableID,
			PartySize:     res.PartySize,
			StartsAt:      res.StartTime.Format("2006-01-02 15:04:05"),
			EndsAt:        res.EndTime.Format("2006-01-02 15:04:05"),
			Status:        res.Status,
			BookedAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
		}
		if detail, err := h.Reservations.GetDetail(ctx, res.ID); err == nil {
			ev.RestaurantName = detail.RestaurantName
			ev.TableNumber = detail.TableNumber
		}
		_ = queue_publisher.PublishReservationBooked(ctx, ev)
	}()
}

// canAccess reports whether the caller may view or modify the
// reservation: admins always, the booking client, or the owner of the
// restaurant being booked.
func (h *ReservationHandler) canAccess(ctx context.Context, c echo.Context, d *repository.ReservationDetail) (bool, error) {
	if isAdmin(c) {
		return true, nil
	}
	uid, err := getUserID(c)
	if err != nil {
		return false, nil
	}
	if d.UserID == uid {
		return true, nil
	}
	return h.Restaurants.IsOwner(ctx, d.RestaurantID, uid)
}

// List returns reservations visible to the caller with optional
// status and restaurant_id filters plus pagination.  Clients see
// their own bookings, owners the bookings of their restaurants, and
// admins everything.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, offset := parsePagination(c)
	f := repository.ReservationFilter{
		Status:       c.QueryParam("status"),
		RestaurantID: c.QueryParam("restaurant_id"),
		Limit:        limit,
		Offset:       offset,
	}
	if f.Status != "" && !reservationStatuses[f.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status value"})
	}

	switch getRole(c) {
	case model.RoleAdmin:
		// no scoping
	case model.RoleOwner:
		if f.RestaurantID != "" {
			owns, err := h.Restaurants.IsOwner(ctx, f.RestaurantID, uid)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
			if !owns {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
		} else {
			f.OwnerID = uid
		}
	default:
		f.UserID = uid
	}

	list, err := h.Reservations.ListDetails(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total, err := h.Reservations.CountDetails(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": list,
		"total":        total,
	})
}

// Get returns one reservation with joined names.
func (h *ReservationHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Reservations.GetDetail(ctx, c.Param("id"))
	if err != nil {
		if err == booking.ErrReservationUnknown {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ok, err := h.canAccess(ctx, c, d)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, d)
}

// checkPermission loads the reservation and verifies the caller may
// act on it.  A nil detail return means the response was written.
func (h *ReservationHandler) checkPermission(ctx context.Context, c echo.Context, id string) (*repository.ReservationDetail, error) {
	d, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		if err == booking.ErrReservationUnknown {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ok, err := h.canAccess(ctx, c, d)
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return d, nil
}

// Update fully replaces a reservation.  Clients cannot hand their
// booking to another user; owners and admins may.
func (h *ReservationHandler) Update(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != "" && !reservationStatuses[req.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status value"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cur, handled := h.checkPermission(ctx, c, c.Param("id"))
	if cur == nil {
		return handled
	}

	userID := cur.UserID
	if req.UserID != "" && req.UserID != cur.UserID {
		if getRole(c) == model.RoleClient {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		userID = strings.TrimSpace(req.UserID)
		if _, err := h.Users.GetByID(ctx, userID); err != nil {
			if err == repository.ErrUserNotFound {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id does not name an existing user"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	res, err := h.Engine.Update(ctx, cur.ID, booking.Draft{
		UserID:       userID,
		RestaurantID: strings.TrimSpace(req.RestaurantID),
		TableID:      strings.TrimSpace(req.TableID),
		Start:        req.Start,
		End:          req.End,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		Status:       req.Status,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Patch partially updates a reservation.  Only table_id, start_time,
// end_time, party_size, notes and status may appear in the body;
// anything else is ignored by construction.
func (h *ReservationHandler) Patch(c echo.Context) error {
	var patch booking.Patch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if patch.Status != nil && !reservationStatuses[*patch.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status value"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cur, handled := h.checkPermission(ctx, c, c.Param("id"))
	if cur == nil {
		return handled
	}

	res, err := h.Engine.PartialUpdate(ctx, cur.ID, patch)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Delete removes a reservation permanently.
func (h *ReservationHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cur, handled := h.checkPermission(ctx, c, c.Param("id"))
	if cur == nil {
		return handled
	}
	if err := h.Reservations.Delete(ctx, cur.ID); err != nil {
		if err == booking.ErrReservationUnknown {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type availabilityReq struct {
	RestaurantID string `json:"restaurant_id"`
	TableID      string `json:"table_id"`
	Start        string `json:"start_time"`
	End          string `json:"end_time"`
	PartySize    uint32 `json:"party_size"`
}

// Check runs the availability rules without writing anything.
func (h *ReservationHandler) Check(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RestaurantID == "" || req.TableID == "" || req.Start == "" || req.End == "" || req.PartySize == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant_id, table_id, start_time, end_time and party_size are required"})
	}
	start, err := booking.ParseTimestamp(req.Start)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time is not a valid timestamp"})
	}
	end, err := booking.ParseTimestamp(req.End)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time is not a valid timestamp"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.CheckAvailability(ctx, booking.AvailabilityRequest{
		TableID:      req.TableID,
		RestaurantID: req.RestaurantID,
		PartySize:    req.PartySize,
		Start:        start,
		End:          end,
	}); err != nil {
		if booking.KindOf(err) == booking.KindConflict {
			return c.JSON(http.StatusOK, echo.Map{
				"available": false,
				"conflict":  booking.ConflictWindow(err),
				"message":   err.Error(),
			})
		}
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true})
}

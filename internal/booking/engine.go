package booking

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Fallback reservation defaults applied when a restaurant does not
// configure its own values.
const (
    DefaultDurationMin  = 90
    DefaultToleranceMin = 15
)

// occupyingStatuses lists the reservation states that block a table
// for conflict purposes.  Every other status is non-occupying.
var occupyingStatuses = []string{model.ReservationPending, model.ReservationConfirmed}

// TableInfo is the read-only table record the engine needs for
// capacity validation.
type TableInfo struct {
    ID           string
    RestaurantID string
    Number       uint32
    Capacity     uint32
}

// Defaults carries a restaurant's reservation configuration with the
// package fallbacks already applied.
type Defaults struct {
    DurationMin  uint32
    ToleranceMin uint32
}

// Catalog is the read-only lookup of tables and restaurant
// configuration.  Implementations return ErrTableUnknown when no
// table matches the pair.
type Catalog interface {
    LookupTable(ctx context.Context, tableID, restaurantID string) (TableInfo, error)
    ReservationDefaults(ctx context.Context, restaurantID string) (Defaults, error)
}

// OverlapQuery describes a single conflict probe: reservations on
// TableID with an occupying status whose interval overlaps
// [Start, End), optionally excluding one reservation id.
type OverlapQuery struct {
    TableID   string
    Start     time.Time
    End       time.Time
    ExcludeID string // empty means no exclusion
    Statuses  []string
}

// Tx is the transactional scope handed to the engine by
// Store.Transact.  Every read inside it observes a consistent
// snapshot and the final write commits or rolls back atomically with
// the availability checks.
type Tx interface {
    LookupTable(ctx context.Context, tableID, restaurantID string) (TableInfo, error)
    FindOverlapping(ctx context.Context, q OverlapQuery) (*Window, error)
    Get(ctx context.Context, id string) (*model.Reservation, error)
    Insert(ctx context.Context, r *model.Reservation) error
    Update(ctx context.Context, r *model.Reservation) error
}

// Store persists reservations.  Transact must run fn inside one
// database transaction and roll everything back when fn returns an
// error; conflicting range reads inside the transaction must lock the
// matched rows so that two concurrent bookings for the same table
// cannot both pass the availability check.
type Store interface {
    Get(ctx context.Context, id string) (*model.Reservation, error)
    FindOverlapping(ctx context.Context, q OverlapQuery) (*Window, error)
    OccupiedSlots(ctx context.Context, tableID, restaurantID string, day time.Time) ([]Window, error)
    Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Engine is the reservation booking engine.  It holds its
// collaborators explicitly; there is no package-level state.
type Engine struct {
    catalog Catalog
    store   Store
    now     func() time.Time
    newID   func() string
}

// New constructs an Engine around the given catalog and store.
func New(catalog Catalog, store Store) *Engine {
    return &Engine{
        catalog: catalog,
        store:   store,
        now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
        newID:   uuid.NewString,
    }
}

// AvailabilityRequest is the input of CheckAvailability.  ExcludeID
// is set when re-validating an existing reservation so it does not
// conflict with itself.
type AvailabilityRequest struct {
    TableID      string
    RestaurantID string
    PartySize    uint32
    Start        time.Time
    End          time.Time
    ExcludeID    string
}

// availabilitySource abstracts where the table lookup and overlap
// probe run: directly against catalog+store for the pure read, or
// inside a Tx for the booking operations.  Having one interface keeps
// the validation order and the overlap predicate in a single place.
type availabilitySource interface {
    LookupTable(ctx context.Context, tableID, restaurantID string) (TableInfo, error)
    FindOverlapping(ctx context.Context, q OverlapQuery) (*Window, error)
}

// catalogStore adapts the non-transactional collaborators to an
// availabilitySource for CheckAvailability.
type catalogStore struct {
    catalog Catalog
    store   Store
}

func (cs catalogStore) LookupTable(ctx context.Context, tableID, restaurantID string) (TableInfo, error) {
    return cs.catalog.LookupTable(ctx, tableID, restaurantID)
}

func (cs catalogStore) FindOverlapping(ctx context.Context, q OverlapQuery) (*Window, error) {
    return cs.store.FindOverlapping(ctx, q)
}

// CheckAvailability reports whether the requested interval can be
// booked.  It is a pure read with fail-fast ordering: table existence,
// capacity, interval sanity, then the overlap probe.  A nil return
// means the slot is free.
func (e *Engine) CheckAvailability(ctx context.Context, req AvailabilityRequest) error {
    return e.validate(ctx, catalogStore{catalog: e.catalog, store: e.store}, req)
}

// validate runs the shared availability rules against src.  Create,
// Update and PartialUpdate all call it with their transaction scope so
// the conflict check is atomic with the subsequent write.
func (e *Engine) validate(ctx context.Context, src availabilitySource, req AvailabilityRequest) error {
    tbl, err := src.LookupTable(ctx, req.TableID, req.RestaurantID)
    if err != nil {
        if errors.Is(err, ErrTableUnknown) {
            return newError(KindNotFound, "table not found for this restaurant")
        }
        return internalError(err)
    }
    if req.PartySize > tbl.Capacity {
        return newError(KindCapacityExceeded, "party size exceeds table capacity (max %d)", tbl.Capacity)
    }
    if !req.End.After(req.Start) {
        return newError(KindInvalidInterval, "reservation end time must be after its start time")
    }
    win, err := src.FindOverlapping(ctx, OverlapQuery{
        TableID:   req.TableID,
        Start:     req.Start,
        End:       req.End,
        ExcludeID: req.ExcludeID,
        Statuses:  occupyingStatuses,
    })
    if err != nil {
        return internalError(err)
    }
    if win != nil {
        return conflictError(*win)
    }
    return nil
}

// Draft is the client-supplied payload for Create and Update.  Start
// and End are raw timestamp strings; the engine parses them into the
// canonical second-precision UTC representation.
type Draft struct {
    UserID       string
    RestaurantID string
    TableID      string
    Start        string
    End          string
    PartySize    uint32
    Notes        *string
    Status       string
}

// timestampLayouts are the accepted wire formats for reservation
// timestamps, tried in order.  Values without a zone are taken as UTC.
var timestampLayouts = []string{
    time.RFC3339,
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05",
}

// ParseTimestamp parses a reservation timestamp into a timezone-naive
// UTC value truncated to second precision.
func ParseTimestamp(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    var firstErr error
    for _, layout := range timestampLayouts {
        t, err := time.Parse(layout, s)
        if err == nil {
            return t.UTC().Truncate(time.Second), nil
        }
        if firstErr == nil {
            firstErr = err
        }
    }
    return time.Time{}, firstErr
}

// parseDraftTimes validates and parses the Start/End strings of a
// draft, reporting ValidationError on malformed input.
func parseDraftTimes(d Draft) (start, end time.Time, err error) {
    start, perr := ParseTimestamp(d.Start)
    if perr != nil {
        return time.Time{}, time.Time{}, newError(KindValidation, "start_time is not a valid timestamp")
    }
    end, perr = ParseTimestamp(d.End)
    if perr != nil {
        return time.Time{}, time.Time{}, newError(KindValidation, "end_time is not a valid timestamp")
    }
    return start, end, nil
}

// missingDraftFields reports which required fields are absent from a
// draft.  Update additionally requires status.
func missingDraftFields(d Draft, requireStatus bool) []string {
    var missing []string
    if d.UserID == "" {
        missing = append(missing, "user_id")
    }
    if d.RestaurantID == "" {
        missing = append(missing, "restaurant_id")
    }
    if d.TableID == "" {
        missing = append(missing, "table_id")
    }
    if strings.TrimSpace(d.Start) == "" {
        missing = append(missing, "start_time")
    }
    if strings.TrimSpace(d.End) == "" {
        missing = append(missing, "end_time")
    }
    if d.PartySize == 0 {
        missing = append(missing, "party_size")
    }
    if requireStatus && d.Status == "" {
        missing = append(missing, "status")
    }
    return missing
}

// Create books a new reservation.  The availability check and the
// insert run inside one store transaction so that two concurrent
// bookings for the same table can never both commit overlapping
// intervals.  Status defaults to pending when omitted.
func (e *Engine) Create(ctx context.Context, draft Draft) (*model.Reservation, error) {
    if missing := missingDraftFields(draft, false); len(missing) > 0 {
        return nil, newError(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
    }
    start, end, err := parseDraftTimes(draft)
    if err != nil {
        return nil, err
    }
    status := draft.Status
    if status == "" {
        status = model.ReservationPending
    }

    now := e.now()
    res := &model.Reservation{
        ID:           e.newID(),
        UserID:       draft.UserID,
        RestaurantID: draft.RestaurantID,
        TableID:      draft.TableID,
        StartTime:    start,
        EndTime:      end,
        PartySize:    draft.PartySize,
        Notes:        draft.Notes,
        Status:       status,
        CreatedAt:    now,
        UpdatedAt:    now,
    }

    err = e.store.Transact(ctx, func(tx Tx) error {
        if err := e.validate(ctx, tx, AvailabilityRequest{
            TableID:      res.TableID,
            RestaurantID: res.RestaurantID,
            PartySize:    res.PartySize,
            Start:        res.StartTime,
            End:          res.EndTime,
        }); err != nil {
            return err
        }
        return tx.Insert(ctx, res)
    })
    if err != nil {
        return nil, asEngineError(err)
    }
    return res, nil
}

// Update fully replaces a reservation.  All draft fields including
// status are required.  The reservation's own interval is excluded
// from the conflict probe so an unchanged booking always succeeds.
func (e *Engine) Update(ctx context.Context, id string, draft Draft) (*model.Reservation, error) {
    if id == "" {
        return nil, newError(KindValidation, "reservation id is required")
    }
    if missing := missingDraftFields(draft, true); len(missing) > 0 {
        return nil, newError(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
    }
    start, end, err := parseDraftTimes(draft)
    if err != nil {
        return nil, err
    }

    var updated *model.Reservation
    err = e.store.Transact(ctx, func(tx Tx) error {
        cur, err := tx.Get(ctx, id)
        if err != nil {
            if errors.Is(err, ErrReservationUnknown) {
                return newError(KindNotFound, "reservation not found")
            }
            return internalError(err)
        }
        if err := e.validate(ctx, tx, AvailabilityRequest{
            TableID:      draft.TableID,
            RestaurantID: draft.RestaurantID,
            PartySize:    draft.PartySize,
            Start:        start,
            End:          end,
            ExcludeID:    id,
        }); err != nil {
            return err
        }
        next := *cur
        next.UserID = draft.UserID
        next.RestaurantID = draft.RestaurantID
        next.TableID = draft.TableID
        next.StartTime = start
        next.EndTime = end
        next.PartySize = draft.PartySize
        next.Notes = draft.Notes
        next.Status = draft.Status
        next.UpdatedAt = e.now()
        if err := tx.Update(ctx, &next); err != nil {
            return internalError(err)
        }
        updated = &next
        return nil
    })
    if err != nil {
        return nil, asEngineError(err)
    }
    return updated, nil
}

// Patch is the explicit allow-list of fields PartialUpdate may touch.
// Keys outside this set (id, user_id, restaurant_id, timestamps) are
// simply never representable here, which is how they get ignored.
type Patch struct {
    TableID   *string `json:"table_id"`
    Start     *string `json:"start_time"`
    End       *string `json:"end_time"`
    PartySize *uint32 `json:"party_size"`
    Notes     *string `json:"notes"`
    Status    *string `json:"status"`
}

// isEmpty reports whether the patch carries no effective change.
func (p Patch) isEmpty() bool {
    return p.TableID == nil && p.Start == nil && p.End == nil &&
        p.PartySize == nil && p.Notes == nil && p.Status == nil
}

// touchesBooking reports whether any field relevant to conflict or
// capacity validation is being changed.  A notes/status-only patch
// skips the availability re-check entirely.
func (p Patch) touchesBooking() bool {
    return p.TableID != nil || p.Start != nil || p.End != nil || p.PartySize != nil
}

// PartialUpdate merges the supplied fields onto the stored
// reservation and re-validates availability only when a
// booking-relevant field changed.  The merge and write are atomic
// with the re-check.
func (e *Engine) PartialUpdate(ctx context.Context, id string, patch Patch) (*model.Reservation, error) {
    if id == "" {
        return nil, newError(KindValidation, "reservation id is required")
    }
    if patch.isEmpty() {
        return nil, newError(KindValidation, "no updatable fields supplied")
    }

    var start, end time.Time
    var haveStart, haveEnd bool
    if patch.Start != nil {
        t, err := ParseTimestamp(*patch.Start)
        if err != nil {
            return nil, newError(KindValidation, "start_time is not a valid timestamp")
        }
        start, haveStart = t, true
    }
    if patch.End != nil {
        t, err := ParseTimestamp(*patch.End)
        if err != nil {
            return nil, newError(KindValidation, "end_time is not a valid timestamp")
        }
        end, haveEnd = t, true
    }
    if patch.PartySize != nil && *patch.PartySize == 0 {
        return nil, newError(KindValidation, "party_size must be a positive integer")
    }

    var updated *model.Reservation
    err := e.store.Transact(ctx, func(tx Tx) error {
        cur, err := tx.Get(ctx, id)
        if err != nil {
            if errors.Is(err, ErrReservationUnknown) {
                return newError(KindNotFound, "reservation not found")
            }
            return internalError(err)
        }
        next := *cur
        if patch.TableID != nil {
            next.TableID = *patch.TableID
        }
        if haveStart {
            next.StartTime = start
        }
        if haveEnd {
            next.EndTime = end
        }
        if patch.PartySize != nil {
            next.PartySize = *patch.PartySize
        }
        if patch.Notes != nil {
            next.Notes = patch.Notes
        }
        if patch.Status != nil {
            next.Status = *patch.Status
        }
        if patch.touchesBooking() {
            if err := e.validate(ctx, tx, AvailabilityRequest{
                TableID:      next.TableID,
                RestaurantID: next.RestaurantID,
                PartySize:    next.PartySize,
                Start:        next.StartTime,
                End:          next.EndTime,
                ExcludeID:    id,
            }); err != nil {
                return err
            }
        }
        next.UpdatedAt = e.now()
        if err := tx.Update(ctx, &next); err != nil {
            return internalError(err)
        }
        updated = &next
        return nil
    })
    if err != nil {
        return nil, asEngineError(err)
    }
    return updated, nil
}

// ListOccupiedSlots returns the occupied intervals of a table on a
// calendar day, ordered by start time.  Callers use it to render
// availability calendars.
func (e *Engine) ListOccupiedSlots(ctx context.Context, tableID, restaurantID string, day time.Time) ([]Window, error) {
    if _, err := e.catalog.LookupTable(ctx, tableID, restaurantID); err != nil {
        if errors.Is(err, ErrTableUnknown) {
            return nil, newError(KindNotFound, "table not found for this restaurant")
        }
        return nil, internalError(err)
    }
    wins, err := e.store.OccupiedSlots(ctx, tableID, restaurantID, day)
    if err != nil {
        return nil, internalError(err)
    }
    return wins, nil
}

// ReservationDefaults exposes the restaurant's configured reservation
// duration and tolerance with package fallbacks applied.  The create
// handler uses the duration to auto-compute end_time when a client
// omits it.
func (e *Engine) ReservationDefaults(ctx context.Context, restaurantID string) (Defaults, error) {
    d, err := e.catalog.ReservationDefaults(ctx, restaurantID)
    if err != nil {
        return Defaults{}, internalError(err)
    }
    if d.DurationMin == 0 {
        d.DurationMin = DefaultDurationMin
    }
    if d.ToleranceMin == 0 {
        d.ToleranceMin = DefaultToleranceMin
    }
    return d, nil
}

// asEngineError normalizes errors escaping a Transact call: engine
// errors pass through, anything else (driver failure, deadlock,
// context cancellation) becomes KindInternal.
func asEngineError(err error) error {
    var e *Error
    if errors.As(err, &e) {
        return e
    }
    return internalError(err)
}

package booking

import (
    "context"
    "fmt"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

const (
    testRestaurantID = "rest-1"
    testTableID      = "table-1"
    testUserID       = "user-1"
)

// newTestEngine wires an engine to a stub store with one table of
// capacity 4 and deterministic clock and id generation.
func newTestEngine(test *testing.T) (*Engine, *stubStore) {
    test.Helper()
    store := newStubStore()
    store.addTable(TableInfo{ID: testTableID, RestaurantID: testRestaurantID, Number: 1, Capacity: 4})
    engine := New(store, store)
    engine.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
    seq := 0
    engine.newID = func() string { seq++; return fmt.Sprintf("res-%d", seq) }
    return engine, store
}

func draftAt(start, end string) Draft {
    return Draft{
        UserID:       testUserID,
        RestaurantID: testRestaurantID,
        TableID:      testTableID,
        Start:        start,
        End:          end,
        PartySize:    2,
    }
}

func mustCreate(test *testing.T, engine *Engine, draft Draft) *model.Reservation {
    test.Helper()
    res, err := engine.Create(context.Background(), draft)
    if err != nil {
        test.Fatalf("create: %v", err)
    }
    return res
}

func TestCreateDefaultsStatusAndGeneratesID(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    if res.ID == "" {
        test.Fatal("expected a generated reservation id")
    }
    if res.Status != model.ReservationPending {
        test.Fatalf("expected default status pending, got %q", res.Status)
    }
    if res.CreatedAt.IsZero() || !res.CreatedAt.Equal(res.UpdatedAt) {
        test.Fatalf("expected fresh matching timestamps, got %v / %v", res.CreatedAt, res.UpdatedAt)
    }
    if len(store.reservations) != 1 {
        test.Fatalf("expected 1 stored reservation, got %d", len(store.reservations))
    }
}

func TestCreateMissingFieldsFailValidation(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")
    draft.TableID = ""
    draft.PartySize = 0

    _, err := engine.Create(context.Background(), draft)
    if KindOf(err) != KindValidation {
        test.Fatalf("expected validation error, got %v", err)
    }
    if !strings.Contains(err.Error(), "table_id") || !strings.Contains(err.Error(), "party_size") {
        test.Fatalf("expected message to name the missing fields, got %q", err.Error())
    }
    if len(store.reservations) != 0 {
        test.Fatal("nothing should be persisted on validation failure")
    }
}

func TestCreateRejectsUnparseableTimestamps(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    _, err := engine.Create(context.Background(), draftAt("tonight", "2025-06-10 19:30:00"))
    if KindOf(err) != KindValidation {
        test.Fatalf("expected validation error for bad start, got %v", err)
    }
    _, err = engine.Create(context.Background(), draftAt("2025-06-10 18:00:00", "late"))
    if KindOf(err) != KindValidation {
        test.Fatalf("expected validation error for bad end, got %v", err)
    }
}

func TestCreateUnknownTableIsNotFound(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")
    draft.TableID = "no-such-table"

    _, err := engine.Create(context.Background(), draft)
    if KindOf(err) != KindNotFound {
        test.Fatalf("expected not found, got %v", err)
    }
}

func TestCreateOverCapacityFails(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 17:00:00") // interval also invalid
    draft.PartySize = 9

    _, err := engine.Create(context.Background(), draft)
    if KindOf(err) != KindCapacityExceeded {
        test.Fatalf("expected capacity error to win over interval check, got %v", err)
    }
    if !strings.Contains(err.Error(), "4") {
        test.Fatalf("expected message to include the max capacity, got %q", err.Error())
    }
}

func TestCreateInvalidInterval(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    for _, end := range []string{"2025-06-10 18:00:00", "2025-06-10 17:00:00"} {
        _, err := engine.Create(context.Background(), draftAt("2025-06-10 18:00:00", end))
        if KindOf(err) != KindInvalidInterval {
            test.Fatalf("expected invalid interval for end %s, got %v", end, err)
        }
    }
}

func TestOverlappingCreateConflictsAndRollsBack(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    _, err := engine.Create(context.Background(), draftAt("2025-06-10 19:00:00", "2025-06-10 20:00:00"))
    if KindOf(err) != KindConflict {
        test.Fatalf("expected conflict, got %v", err)
    }
    win := ConflictWindow(err)
    if win == nil {
        test.Fatal("expected conflict to carry the blocking window")
    }
    if win.Start.Hour() != 18 || win.End.Hour() != 19 || win.End.Minute() != 30 {
        test.Fatalf("expected blocking window 18:00-19:30, got %v-%v", win.Start, win.End)
    }
    if !strings.Contains(err.Error(), "18:00") || !strings.Contains(err.Error(), "19:30") {
        test.Fatalf("expected human-readable window in message, got %q", err.Error())
    }
    if len(store.reservations) != 1 {
        test.Fatalf("conflicting create must not persist anything, got %d rows", len(store.reservations))
    }
}

func TestBackToBackBookingsDoNotConflict(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    mustCreate(test, engine, draftAt("2025-06-10 19:30:00", "2025-06-10 20:30:00"))

    if len(store.reservations) != 2 {
        test.Fatalf("expected both back-to-back bookings to commit, got %d", len(store.reservations))
    }
}

func TestNonOccupyingStatusDoesNotBlock(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    first := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    cancelled := model.ReservationCancelled
    if _, err := engine.PartialUpdate(context.Background(), first.ID, Patch{Status: &cancelled}); err != nil {
        test.Fatalf("cancel: %v", err)
    }

    if _, err := engine.Create(context.Background(), draftAt("2025-06-10 18:30:00", "2025-06-10 19:00:00")); err != nil {
        test.Fatalf("expected cancelled reservation to free the slot, got %v", err)
    }
}

func TestUpdateExcludesOwnInterval(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")
    draft.Status = model.ReservationConfirmed
    updated, err := engine.Update(context.Background(), res.ID, draft)
    if err != nil {
        test.Fatalf("expected self-overlapping update to succeed, got %v", err)
    }
    if updated.Status != model.ReservationConfirmed {
        test.Fatalf("expected status confirmed, got %q", updated.Status)
    }
    if !updated.CreatedAt.Equal(res.CreatedAt) {
        test.Fatal("update must preserve created_at")
    }
}

func TestUpdateRequiresAllFields(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")
    // status intentionally absent
    _, err := engine.Update(context.Background(), res.ID, draft)
    if KindOf(err) != KindValidation {
        test.Fatalf("expected validation error without status, got %v", err)
    }
}

func TestUpdateUnknownReservationIsNotFound(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")
    draft.Status = model.ReservationPending
    _, err := engine.Update(context.Background(), "missing", draft)
    if KindOf(err) != KindNotFound {
        test.Fatalf("expected not found, got %v", err)
    }
}

func TestUpdateIntoOccupiedSlotConflicts(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    second := mustCreate(test, engine, draftAt("2025-06-10 20:00:00", "2025-06-10 21:00:00"))

    draft := draftAt("2025-06-10 19:00:00", "2025-06-10 20:00:00")
    draft.Status = model.ReservationPending
    _, err := engine.Update(context.Background(), second.ID, draft)
    if KindOf(err) != KindConflict {
        test.Fatalf("expected conflict, got %v", err)
    }
    // rollback: second keeps its original interval
    kept, _ := store.Get(context.Background(), second.ID)
    if kept.StartTime.Hour() != 20 {
        test.Fatalf("failed update must leave the reservation untouched, got start %v", kept.StartTime)
    }
}

func TestPartialUpdateNotesOnlySkipsAvailability(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    probes := store.overlapCalls

    notes := "window seat"
    first, err := engine.PartialUpdate(context.Background(), res.ID, Patch{Notes: &notes})
    if err != nil {
        test.Fatalf("notes patch: %v", err)
    }
    second, err := engine.PartialUpdate(context.Background(), res.ID, Patch{Notes: &notes})
    if err != nil {
        test.Fatalf("repeated notes patch: %v", err)
    }

    if store.overlapCalls != probes {
        test.Fatalf("notes-only patch must not probe for conflicts, got %d extra probes", store.overlapCalls-probes)
    }
    if first.Notes == nil || *first.Notes != "window seat" || *second.Notes != *first.Notes {
        test.Fatal("expected the same notes after repeating the patch")
    }
    if !second.StartTime.Equal(res.StartTime) || second.PartySize != res.PartySize || second.TableID != res.TableID {
        test.Fatal("notes-only patch must not alter interval, capacity or table")
    }
}

func TestPartialUpdateEmptyPatchFails(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    _, err := engine.PartialUpdate(context.Background(), res.ID, Patch{})
    if KindOf(err) != KindValidation {
        test.Fatalf("expected validation error for empty patch, got %v", err)
    }
}

func TestPartialUpdateRevalidatesMergedRecord(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    second := mustCreate(test, engine, draftAt("2025-06-10 20:00:00", "2025-06-10 21:00:00"))

    start := "2025-06-10 19:00:00"
    _, err := engine.PartialUpdate(context.Background(), second.ID, Patch{Start: &start})
    if KindOf(err) != KindConflict {
        test.Fatalf("expected merged record to conflict, got %v", err)
    }

    size := uint32(6)
    _, err = engine.PartialUpdate(context.Background(), second.ID, Patch{PartySize: &size})
    if KindOf(err) != KindCapacityExceeded {
        test.Fatalf("expected capacity exceeded for party of 6, got %v", err)
    }
}

func TestPartialUpdateOwnIntervalSucceeds(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    start := "2025-06-10 18:00:00"
    end := "2025-06-10 19:30:00"
    if _, err := engine.PartialUpdate(context.Background(), res.ID, Patch{Start: &start, End: &end}); err != nil {
        test.Fatalf("expected patch onto own interval to succeed, got %v", err)
    }
}

func TestPartialUpdateUnknownReservationIsNotFound(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    notes := "x"
    _, err := engine.PartialUpdate(context.Background(), "missing", Patch{Notes: &notes})
    if KindOf(err) != KindNotFound {
        test.Fatalf("expected not found, got %v", err)
    }
}

func TestCheckAvailabilityIsPureRead(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    before := len(store.reservations)

    err := engine.CheckAvailability(context.Background(), AvailabilityRequest{
        TableID:      testTableID,
        RestaurantID: testRestaurantID,
        PartySize:    2,
        Start:        time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC),
        End:          time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC),
    })
    if KindOf(err) != KindConflict {
        test.Fatalf("expected conflict, got %v", err)
    }

    err = engine.CheckAvailability(context.Background(), AvailabilityRequest{
        TableID:      testTableID,
        RestaurantID: testRestaurantID,
        PartySize:    2,
        Start:        time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC),
        End:          time.Date(2025, 6, 11, 20, 0, 0, 0, time.UTC),
    })
    if err != nil {
        test.Fatalf("expected free slot on the next day, got %v", err)
    }
    if len(store.reservations) != before {
        test.Fatal("availability check must not write")
    }
}

func TestCheckAvailabilityExcludesSelf(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    res := mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))

    err := engine.CheckAvailability(context.Background(), AvailabilityRequest{
        TableID:      testTableID,
        RestaurantID: testRestaurantID,
        PartySize:    2,
        Start:        res.StartTime,
        End:          res.EndTime,
        ExcludeID:    res.ID,
    })
    if err != nil {
        test.Fatalf("expected self-excluded check to pass, got %v", err)
    }
}

func TestListOccupiedSlotsOrdered(test *testing.T) {
    test.Parallel()
    engine, _ := newTestEngine(test)

    mustCreate(test, engine, draftAt("2025-06-10 20:00:00", "2025-06-10 21:00:00"))
    mustCreate(test, engine, draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00"))
    mustCreate(test, engine, draftAt("2025-06-11 18:00:00", "2025-06-11 19:00:00")) // next day, must not appear

    day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
    wins, err := engine.ListOccupiedSlots(context.Background(), testTableID, testRestaurantID, day)
    if err != nil {
        test.Fatalf("occupied slots: %v", err)
    }
    if len(wins) != 2 {
        test.Fatalf("expected 2 slots on the day, got %d", len(wins))
    }
    if !wins[0].Start.Before(wins[1].Start) {
        test.Fatal("expected slots ordered by start time")
    }

    if _, err := engine.ListOccupiedSlots(context.Background(), "no-such-table", testRestaurantID, day); KindOf(err) != KindNotFound {
        test.Fatalf("expected not found for unknown table, got %v", err)
    }
}

func TestReservationDefaultsFallback(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)

    d, err := engine.ReservationDefaults(context.Background(), testRestaurantID)
    if err != nil {
        test.Fatalf("defaults: %v", err)
    }
    if d.DurationMin != DefaultDurationMin || d.ToleranceMin != DefaultToleranceMin {
        test.Fatalf("expected fallback defaults 90/15, got %d/%d", d.DurationMin, d.ToleranceMin)
    }

    store.defaults[testRestaurantID] = Defaults{DurationMin: 120, ToleranceMin: 30}
    d, err = engine.ReservationDefaults(context.Background(), testRestaurantID)
    if err != nil {
        test.Fatalf("defaults: %v", err)
    }
    if d.DurationMin != 120 || d.ToleranceMin != 30 {
        test.Fatalf("expected configured defaults 120/30, got %d/%d", d.DurationMin, d.ToleranceMin)
    }
}

func TestConcurrentCreatesOnlyOneWins(test *testing.T) {
    test.Parallel()
    engine, store := newTestEngine(test)
    engine.newID = func() string { return "res-" + fmt.Sprint(time.Now().UnixNano()) }

    draft := draftAt("2025-06-10 18:00:00", "2025-06-10 19:30:00")

    var wg sync.WaitGroup
    results := make(chan error, 2)
    for i := 0; i < 2; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := engine.Create(context.Background(), draft)
            results <- err
        }()
    }
    wg.Wait()
    close(results)

    var succeeded, conflicted int
    for err := range results {
        switch {
        case err == nil:
            succeeded++
        case KindOf(err) == KindConflict:
            conflicted++
        default:
            test.Fatalf("unexpected outcome: %v", err)
        }
    }
    if succeeded != 1 || conflicted != 1 {
        test.Fatalf("expected exactly one winner and one conflict, got %d/%d", succeeded, conflicted)
    }
    if len(store.reservations) != 1 {
        test.Fatalf("expected exactly one committed reservation, got %d", len(store.reservations))
    }
}

func TestParseTimestampFormats(test *testing.T) {
    test.Parallel()
    want := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
    for _, in := range []string{
        "2025-06-10T18:00:00Z",
        "2025-06-10T18:00:00",
        "2025-06-10 18:00:00",
        "  2025-06-10 18:00:00  ",
    } {
        got, err := ParseTimestamp(in)
        if err != nil {
            test.Fatalf("parse %q: %v", in, err)
        }
        if !got.Equal(want) {
            test.Fatalf("parse %q: expected %v, got %v", in, want, got)
        }
    }
    if _, err := ParseTimestamp("next friday"); err == nil {
        test.Fatal("expected error for junk input")
    }
}

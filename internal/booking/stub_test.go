package booking

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// stubStore is an in-memory Catalog + Store used by the engine tests.
// Transact takes the store mutex for its whole duration and restores a
// snapshot on error, which mirrors the isolation and rollback the SQL
// store provides.
type stubStore struct {
    mu           sync.Mutex
    tables       map[string]TableInfo // keyed by tableID + "|" + restaurantID
    defaults     map[string]Defaults  // keyed by restaurantID
    reservations map[string]*model.Reservation
    overlapCalls int
}

func newStubStore() *stubStore {
    return &stubStore{
        tables:       make(map[string]TableInfo),
        defaults:     make(map[string]Defaults),
        reservations: make(map[string]*model.Reservation),
    }
}

func (s *stubStore) addTable(t TableInfo) {
    s.tables[t.ID+"|"+t.RestaurantID] = t
}

func (s *stubStore) LookupTable(_ context.Context, tableID, restaurantID string) (TableInfo, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.lookupLocked(tableID, restaurantID)
}

func (s *stubStore) lookupLocked(tableID, restaurantID string) (TableInfo, error) {
    t, ok := s.tables[tableID+"|"+restaurantID]
    if !ok {
        return TableInfo{}, ErrTableUnknown
    }
    return t, nil
}

func (s *stubStore) ReservationDefaults(_ context.Context, restaurantID string) (Defaults, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.defaults[restaurantID], nil
}

func (s *stubStore) Get(_ context.Context, id string) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.getLocked(id)
}

func (s *stubStore) getLocked(id string) (*model.Reservation, error) {
    r, ok := s.reservations[id]
    if !ok {
        return nil, ErrReservationUnknown
    }
    cp := *r
    return &cp, nil
}

func (s *stubStore) FindOverlapping(_ context.Context, q OverlapQuery) (*Window, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.findOverlappingLocked(q)
}

func (s *stubStore) findOverlappingLocked(q OverlapQuery) (*Window, error) {
    s.overlapCalls++
    occupying := make(map[string]bool, len(q.Statuses))
    for _, st := range q.Statuses {
        occupying[st] = true
    }
    for _, r := range s.reservations {
        if r.TableID != q.TableID || r.ID == q.ExcludeID || !occupying[r.Status] {
            continue
        }
        if r.StartTime.Before(q.End) && r.EndTime.After(q.Start) {
            return &Window{Start: r.StartTime, End: r.EndTime}, nil
        }
    }
    return nil, nil
}

func (s *stubStore) OccupiedSlots(_ context.Context, tableID, restaurantID string, day time.Time) ([]Window, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    y, m, d := day.Date()
    wins := make([]Window, 0)
    for _, r := range s.reservations {
        if r.TableID != tableID || r.RestaurantID != restaurantID {
            continue
        }
        if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
            continue
        }
        ry, rm, rd := r.StartTime.Date()
        if ry == y && rm == m && rd == d {
            wins = append(wins, Window{Start: r.StartTime, End: r.EndTime})
        }
    }
    sort.Slice(wins, func(i, j int) bool { return wins[i].Start.Before(wins[j].Start) })
    return wins, nil
}

// stubTx runs against the already-locked store so every operation
// inside Transact sees and mutates the same state.
type stubTx struct{ store *stubStore }

func (t stubTx) LookupTable(_ context.Context, tableID, restaurantID string) (TableInfo, error) {
    return t.store.lookupLocked(tableID, restaurantID)
}

func (t stubTx) FindOverlapping(_ context.Context, q OverlapQuery) (*Window, error) {
    return t.store.findOverlappingLocked(q)
}

func (t stubTx) Get(_ context.Context, id string) (*model.Reservation, error) {
    return t.store.getLocked(id)
}

func (t stubTx) Insert(_ context.Context, r *model.Reservation) error {
    cp := *r
    t.store.reservations[r.ID] = &cp
    return nil
}

func (t stubTx) Update(_ context.Context, r *model.Reservation) error {
    if _, ok := t.store.reservations[r.ID]; !ok {
        return ErrReservationUnknown
    }
    cp := *r
    t.store.reservations[r.ID] = &cp
    return nil
}

func (s *stubStore) Transact(_ context.Context, fn func(tx Tx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    snapshot := make(map[string]*model.Reservation, len(s.reservations))
    for id, r := range s.reservations {
        cp := *r
        snapshot[id] = &cp
    }
    if err := fn(stubTx{store: s}); err != nil {
        s.reservations = snapshot
        return err
    }
    return nil
}

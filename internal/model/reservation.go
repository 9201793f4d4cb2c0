package model

import "time"

// Reservation records a booked time interval at a table.  Intervals
// are half-open [StartTime, EndTime): a reservation ending at T and
// another starting exactly at T on the same table do not conflict.
// Timestamps are timezone-naive wall-clock values stored in UTC with
// second precision.
//
// Fields:
//  ID           – UUID primary key, generated server-side.
//  UserID       – user who holds the reservation.
//  RestaurantID – restaurant being booked.
//  TableID      – table being booked.
//  StartTime    – beginning of the reserved interval.
//  EndTime      – end of the reserved interval (must be after StartTime).
//  PartySize    – number of guests; never above the table capacity.
//  Notes        – optional free-form note from the guest.
//  Status       – state of the reservation (pending, confirmed,
//                 cancelled, completed).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
    ID           string    // reservations.id (char(36) UUID)
    UserID       string    // reservations.user_id
    RestaurantID string    // reservations.restaurant_id
    TableID      string    // reservations.table_id
    StartTime    time.Time // reservations.start_time
    EndTime      time.Time // reservations.end_time
    PartySize    uint32    // reservations.party_size
    Notes        *string   // reservations.notes (nullable)
    Status       string    // reservations.status
    CreatedAt    time.Time // reservations.created_at
    UpdatedAt    time.Time // reservations.updated_at
}

// Reservation status values.  Only pending and confirmed occupy a
// table for conflict purposes; every other status is non-occupying.
const (
    ReservationPending   = "pending"
    ReservationConfirmed = "confirmed"
    ReservationCancelled = "cancelled"
    ReservationCompleted = "completed"
)

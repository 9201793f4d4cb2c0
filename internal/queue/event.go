// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationBookedEvent is published when a table reservation is
// successfully booked.  It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationBookedEvent struct {
	ReservationID  string `json:"reservation_id"`
	UserID         string `json:"user_id"`
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	TableID        string `json:"table_id"`
	TableNumber    uint32 `json:"table_number"`
	PartySize      uint32 `json:"party_size"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	Status         string `json:"status"`
	BookedAt       string `json:"booked_at"`
}

package model

import "time"

// Table describes a physical table inside a restaurant.  Tables are
// uniquely identified by their restaurant and number.  Capacity is
// the hard upper bound on party size enforced by the booking engine.
//
// Fields:
//  ID           – UUID primary key.
//  RestaurantID – restaurant to which this table belongs.
//  Number       – table number unique per restaurant.
//  Capacity     – maximum party size.
//  Status       – informational state (AVAILABLE, OCCUPIED, RESERVED).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
    ID           string    // tables.id (char(36) UUID)
    RestaurantID string    // tables.restaurant_id
    Number       uint32    // tables.number
    Capacity     uint32    // tables.capacity
    Status       string    // tables.status
    CreatedAt    time.Time // tables.created_at
    UpdatedAt    time.Time // tables.updated_at
}

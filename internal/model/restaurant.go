package model

import "time"

// Restaurant represents a venue that accepts table reservations.
// Each restaurant belongs to one owner and can contain multiple
// tables.  Restaurants are soft-deleted: the Deleted flag hides a
// record from every listing without destroying reservation history.
//
// Fields:
//  ID             – UUID primary key.
//  OwnerID        – user ID of the restaurant owner.
//  Name           – unique restaurant name.
//  Address        – street address.
//  City           – city used by public search filters.
//  Phone          – optional contact phone.
//  Cuisine        – cuisine label used by public search filters.
//  OpeningHours   – free-form opening hours description.
//  Description    – optional long description.
//  Photos         – optional JSON-encoded list of photo URLs.
//  ReservationMin – default reservation duration in minutes (nil → fallback 90).
//  ToleranceMin   – late-arrival tolerance in minutes (nil → fallback 15).
//  Deleted        – soft-delete flag.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Restaurant struct {
    ID             string    // restaurants.id (char(36) UUID)
    OwnerID        string    // restaurants.owner_id
    Name           string    // restaurants.name
    Address        string    // restaurants.address
    City           string    // restaurants.city
    Phone          *string   // restaurants.phone (nullable)
    Cuisine        string    // restaurants.cuisine
    OpeningHours   string    // restaurants.opening_hours
    Description    *string   // restaurants.description (nullable)
    Photos         *string   // restaurants.photos (nullable)
    ReservationMin *uint32   // restaurants.reservation_duration_min (nullable)
    ToleranceMin   *uint32   // restaurants.late_tolerance_min (nullable)
    Deleted        bool      // restaurants.deleted
    CreatedAt      time.Time // restaurants.created_at
    UpdatedAt      time.Time // restaurants.updated_at
}

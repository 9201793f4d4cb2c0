package model

import "time"

// Review stores a client's rating of a restaurant.  A user may leave
// at most one review per restaurant; the pair (RestaurantID, UserID)
// is unique.
//
// Fields:
//  ID           – UUID primary key.
//  RestaurantID – reviewed restaurant.
//  UserID       – author of the review.
//  Rating       – score between 1 and 5.
//  Comment      – optional free-form comment.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Review struct {
    ID           string    // reviews.id (char(36) UUID)
    RestaurantID string    // reviews.restaurant_id
    UserID       string    // reviews.user_id
    Rating       uint8     // reviews.rating
    Comment      *string   // reviews.comment (nullable)
    CreatedAt    time.Time // reviews.created_at
    UpdatedAt    time.Time // reviews.updated_at
}

// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while the duplicate errors signal unique-key
// violations (restaurant names, table numbers, one review per user).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrRestaurantNotFound is returned when a restaurant lookup fails
// or the restaurant is soft-deleted.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrTableNotFound is returned when no table matches the requested
// id within the given restaurant.
var ErrTableNotFound = errors.New("table not found")

// ErrReviewNotFound is returned when a review lookup fails.
var ErrReviewNotFound = errors.New("review not found")

// ErrUserNotFound is returned when a user lookup by id fails.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateName is returned when creating a restaurant whose name
// is already in use.
var ErrDuplicateName = errors.New("restaurant name already exists")

// ErrDuplicateTable is returned when creating a table whose number is
// already used within the restaurant.
var ErrDuplicateTable = errors.New("table number already exists for this restaurant")

// ErrDuplicateReview is returned when a user reviews the same
// restaurant twice.
var ErrDuplicateReview = errors.New("review already exists for this restaurant")

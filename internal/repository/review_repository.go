package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReviewRepo provides access to restaurant reviews.  The pair
// (restaurant_id, user_id) is unique: a user may review a restaurant
// at most once and edits go through Update.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, restaurant_id, user_id, rating, comment, created_at, updated_at`

func scanReview(row rowScanner) (*model.Review, error) {
	var rev model.Review
	var comment sql.NullString
	err := row.Scan(&rev.ID, &rev.RestaurantID, &rev.UserID, &rev.Rating, &comment, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if comment.Valid {
		c := comment.String
		rev.Comment = &c
	}
	return &rev, nil
}

// Create inserts a review.  Returns ErrDuplicateReview when the user
// already reviewed the restaurant.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	rev.ID = uuid.NewString()
	const q = `INSERT INTO reviews (id, restaurant_id, user_id, rating, comment) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, rev.ID, rev.RestaurantID, rev.UserID, rev.Rating, rev.Comment); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateReview
		}
		return err
	}
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	created, err := scanReview(r.db.QueryRowContext(ctx, sel, rev.ID))
	if err != nil {
		return err
	}
	*rev = *created
	return nil
}

// GetByID returns a review or ErrReviewNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	const q = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	rev, err := scanReview(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// ReviewEntry is a review joined with its author's display name for
// the public listing.
type ReviewEntry struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name"`
	Rating    uint8   `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ListByRestaurant returns the reviews of a restaurant, newest first.
func (r *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]ReviewEntry, error) {
	query := `SELECT rev.id, rev.user_id, u.name, rev.rating, rev.comment, rev.created_at
        FROM reviews rev
        JOIN users u ON u.id = rev.user_id
        WHERE rev.restaurant_id = ?
        ORDER BY rev.created_at DESC`
	args := []interface{}{restaurantID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewEntry, 0)
	for rows.Next() {
		var e ReviewEntry
		var comment sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Rating, &comment, &createdAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			c := comment.String
			e.Comment = &c
		}
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time.UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AverageRating returns the mean rating of a restaurant and the
// review count.  Zero average means no reviews yet.
func (r *ReviewRepo) AverageRating(ctx context.Context, restaurantID string) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE restaurant_id = ?`
	var avg float64
	var count int
	if err := r.db.QueryRowContext(ctx, q, restaurantID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

// Update rewrites a review's rating and comment.  Only the review's
// author may edit it; a mismatched user yields ErrForbidden.
func (r *ReviewRepo) Update(ctx context.Context, rev *model.Review) error {
	cur, err := r.GetByID(ctx, rev.ID)
	if err != nil {
		return err
	}
	if cur.UserID != rev.UserID {
		return ErrForbidden
	}
	const q = `UPDATE reviews SET rating = ?, comment = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, rev.Rating, rev.Comment, rev.ID); err != nil {
		return err
	}
	const sel = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	updated, err := scanReview(r.db.QueryRowContext(ctx, sel, rev.ID))
	if err != nil {
		return err
	}
	*rev = *updated
	return nil
}

// Delete removes a review.  Admins may delete any review, other
// users only their own.
func (r *ReviewRepo) Delete(ctx context.Context, id, userID string, admin bool) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !admin && cur.UserID != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

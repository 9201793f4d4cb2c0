package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RestaurantRepo provides CRUD operations for restaurants.  Deletion
// is a soft delete: the deleted flag hides the record from every
// query here while preserving reservation history.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a new RestaurantRepo bound to the given database.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantColumns = `id, owner_id, name, address, city, phone, cuisine, opening_hours,
        description, photos, reservation_duration_min, late_tolerance_min, deleted, created_at, updated_at`

func scanRestaurant(row rowScanner) (*model.Restaurant, error) {
	var r model.Restaurant
	var phone, description, photos sql.NullString
	var durationMin, toleranceMin sql.NullInt64
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Name, &r.Address, &r.City, &phone, &r.Cuisine,
		&r.OpeningHours, &description, &photos, &durationMin, &toleranceMin,
		&r.Deleted, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		v := phone.String
		r.Phone = &v
	}
	if description.Valid {
		v := description.String
		r.Description = &v
	}
	if photos.Valid {
		v := photos.String
		r.Photos = &v
	}
	if durationMin.Valid {
		v := uint32(durationMin.Int64)
		r.ReservationMin = &v
	}
	if toleranceMin.Valid {
		v := uint32(toleranceMin.Int64)
		r.ToleranceMin = &v
	}
	return &r, nil
}

// Create inserts a new restaurant and populates the generated id and
// timestamps.  Returns ErrDuplicateName when the name is taken.
func (r *RestaurantRepo) Create(ctx context.Context, res *model.Restaurant) error {
	res.ID = uuid.NewString()
	const q = `INSERT INTO restaurants (id, owner_id, name, address, city, phone, cuisine,
        opening_hours, description, photos, reservation_duration_min, late_tolerance_min)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.OwnerID, res.Name, res.Address, res.City, res.Phone, res.Cuisine,
		res.OpeningHours, res.Description, res.Photos, res.ReservationMin, res.ToleranceMin,
	)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateName
		}
		return err
	}
	const sel = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = ?`
	created, err := scanRestaurant(r.db.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

// GetByID returns a restaurant by id.  Soft-deleted restaurants are
// reported as ErrRestaurantNotFound.
func (r *RestaurantRepo) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	const q = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = ? AND deleted = 0`
	res, err := scanRestaurant(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// IsOwner reports whether userID owns the (non-deleted) restaurant.
func (r *RestaurantRepo) IsOwner(ctx context.Context, restaurantID, userID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM restaurants WHERE id = ? AND owner_id = ? AND deleted = 0`
	var n int
	if err := r.db.QueryRowContext(ctx, q, restaurantID, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByOwner returns all restaurants belonging to an owner.
func (r *RestaurantRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Restaurant, error) {
	const q = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE owner_id = ? AND deleted = 0 ORDER BY created_at DESC`
	return r.queryList(ctx, q, ownerID)
}

// RestaurantFilter narrows the public restaurant listing.  Search
// matches name or description, the other fields match exactly.
type RestaurantFilter struct {
	Search  string
	Cuisine string
	City    string
	Limit   int
	Offset  int
}

func (f RestaurantFilter) conditions() (string, []interface{}) {
	conds := []string{"deleted = 0"}
	var args []interface{}
	if f.Search != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.Cuisine != "" {
		conds = append(conds, "cuisine = ?")
		args = append(args, f.Cuisine)
	}
	if f.City != "" {
		conds = append(conds, "city = ?")
		args = append(args, f.City)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns the public restaurant listing with optional search
// filters and pagination.
func (r *RestaurantRepo) List(ctx context.Context, f RestaurantFilter) ([]model.Restaurant, error) {
	where, args := f.conditions()
	query := `SELECT ` + restaurantColumns + ` FROM restaurants` + where + ` ORDER BY name ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	return r.queryList(ctx, query, args...)
}

// Count returns the number of restaurants matching the filter.
func (r *RestaurantRepo) Count(ctx context.Context, f RestaurantFilter) (int, error) {
	where, args := f.conditions()
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`+where, args...).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *RestaurantRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]model.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restaurant, 0)
	for rows.Next() {
		res, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a restaurant.  Returns
// ErrRestaurantNotFound when the restaurant does not exist or is
// deleted, and ErrDuplicateName on a name collision.
func (r *RestaurantRepo) Update(ctx context.Context, res *model.Restaurant) error {
	const q = `UPDATE restaurants SET name = ?, address = ?, city = ?, phone = ?, cuisine = ?,
        opening_hours = ?, description = ?, photos = ?, reservation_duration_min = ?, late_tolerance_min = ?
        WHERE id = ? AND deleted = 0`
	result, err := r.db.ExecContext(ctx, q,
		res.Name, res.Address, res.City, res.Phone, res.Cuisine,
		res.OpeningHours, res.Description, res.Photos, res.ReservationMin, res.ToleranceMin,
		res.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateName
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, res.ID); err != nil {
			return err
		}
	}
	const sel = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = ?`
	updated, err := scanRestaurant(r.db.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *updated
	return nil
}

// SoftDelete marks a restaurant as deleted.  Returns
// ErrRestaurantNotFound when no live row matched.
func (r *RestaurantRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE restaurants SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

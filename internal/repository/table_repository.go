package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides CRUD operations for restaurant tables.  It also
// implements the booking.Catalog interface: LookupTable backs the
// engine's existence and capacity checks and ReservationDefaults
// exposes the restaurant's duration and tolerance configuration.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, restaurant_id, number, capacity, status, created_at, updated_at`

func scanTable(row rowScanner) (*model.Table, error) {
	var t model.Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LookupTable resolves a table within a non-deleted restaurant for
// the booking engine.  Returns booking.ErrTableUnknown when no table
// matches.
func (r *TableRepo) LookupTable(ctx context.Context, tableID, restaurantID string) (booking.TableInfo, error) {
	return lookupTable(ctx, r.db, tableID, restaurantID)
}

// ReservationDefaults reads the restaurant's configured reservation
// duration and late tolerance.  NULL columns come back as zero; the
// engine applies the package fallbacks.
func (r *TableRepo) ReservationDefaults(ctx context.Context, restaurantID string) (booking.Defaults, error) {
	const q = `SELECT COALESCE(reservation_duration_min, 0), COALESCE(late_tolerance_min, 0)
        FROM restaurants WHERE id = ? AND deleted = 0`
	var d booking.Defaults
	err := r.db.QueryRowContext(ctx, q, restaurantID).Scan(&d.DurationMin, &d.ToleranceMin)
	if err == sql.ErrNoRows {
		return booking.Defaults{}, nil
	}
	if err != nil {
		return booking.Defaults{}, err
	}
	return d, nil
}

// Create inserts a new table and populates the generated id and
// timestamps on the given model.  Returns ErrDuplicateTable when the
// number is already used within the restaurant.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = "AVAILABLE"
	}
	const q = `INSERT INTO tables (id, restaurant_id, number, capacity, status) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.RestaurantID, t.Number, t.Capacity, t.Status); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateTable
		}
		return err
	}
	const sel = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	created, err := scanTable(r.db.QueryRowContext(ctx, sel, t.ID))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// GetByID returns a table scoped to its restaurant, or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, restaurantID, tableID string) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ? AND restaurant_id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, tableID, restaurantID))
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByRestaurant returns all tables of a restaurant ordered by number.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE restaurant_id = ? ORDER BY number ASC`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update rewrites a table's number, capacity and status.  Returns
// ErrTableNotFound when the table does not exist in the restaurant
// and ErrDuplicateTable on a number collision.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE tables SET number = ?, capacity = ?, status = ? WHERE id = ? AND restaurant_id = ?`
	result, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, t.Status, t.ID, t.RestaurantID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateTable
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, t.RestaurantID, t.ID); err != nil {
			return err
		}
	}
	const sel = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	updated, err := scanTable(r.db.QueryRowContext(ctx, sel, t.ID))
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// Delete removes a table.  Returns ErrTableNotFound when no row matched.
func (r *TableRepo) Delete(ctx context.Context, restaurantID, tableID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ? AND restaurant_id = ?`, tableID, restaurantID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	return nil
}

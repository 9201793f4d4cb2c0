package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo persists reservations.  It implements the
// booking.Store interface consumed by the booking engine: plain reads
// run against the pool, while Transact hands the engine a scope bound
// to a single SQL transaction in which the overlap probe locks the
// matched rows (FOR UPDATE) so two concurrent bookings for the same
// table serialize instead of both passing the availability check.
// All timestamp columns are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// queryer is the common surface of *sql.DB and *sql.Tx.  The shared
// query helpers below take it so the exact same SQL runs in both the
// pooled and the transactional paths.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const reservationColumns = `id, user_id, restaurant_id, table_id, start_time, end_time, party_size, notes, status, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var notes sql.NullString
	err := row.Scan(
		&res.ID, &res.UserID, &res.RestaurantID, &res.TableID,
		&res.StartTime, &res.EndTime, &res.PartySize, &notes,
		&res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		n := notes.String
		res.Notes = &n
	}
	return &res, nil
}

func getReservation(ctx context.Context, q queryer, id string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationUnknown
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// findOverlapping runs the half-open interval conflict probe:
// existing.start < new.end AND existing.end > new.start, restricted
// to the occupying statuses.  It returns the first blocking window or
// nil when the slot is free.  lock appends FOR UPDATE so the probe
// holds row and gap locks for the rest of the transaction.
func findOverlapping(ctx context.Context, q queryer, probe booking.OverlapQuery, lock bool) (*booking.Window, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(probe.Statuses)), ",")
	query := `SELECT start_time, end_time FROM reservations
        WHERE table_id = ? AND status IN (` + placeholders + `)
        AND start_time < ? AND end_time > ?`
	args := make([]interface{}, 0, len(probe.Statuses)+4)
	args = append(args, probe.TableID)
	for _, s := range probe.Statuses {
		args = append(args, s)
	}
	args = append(args, probe.End, probe.Start)
	if probe.ExcludeID != "" {
		query += ` AND id <> ?`
		args = append(args, probe.ExcludeID)
	}
	query += ` ORDER BY start_time ASC LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	var win booking.Window
	err := q.QueryRowContext(ctx, query, args...).Scan(&win.Start, &win.End)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &win, nil
}

// lookupTable resolves a table within a restaurant together with the
// restaurant's reservation configuration.  The join also enforces
// that the restaurant is not soft-deleted, so tables of a deleted
// restaurant are unbookable.
func lookupTable(ctx context.Context, q queryer, tableID, restaurantID string) (booking.TableInfo, error) {
	const query = `SELECT t.id, t.restaurant_id, t.number, t.capacity
        FROM tables t
        JOIN restaurants r ON r.id = t.restaurant_id AND r.deleted = 0
        WHERE t.id = ? AND t.restaurant_id = ?`
	var info booking.TableInfo
	err := q.QueryRowContext(ctx, query, tableID, restaurantID).
		Scan(&info.ID, &info.RestaurantID, &info.Number, &info.Capacity)
	if err == sql.ErrNoRows {
		return booking.TableInfo{}, booking.ErrTableUnknown
	}
	if err != nil {
		return booking.TableInfo{}, err
	}
	return info, nil
}

// Get returns a reservation by id, or booking.ErrReservationUnknown.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

// FindOverlapping runs the conflict probe outside any transaction.
// It backs the pure availability check endpoint.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, q booking.OverlapQuery) (*booking.Window, error) {
	return findOverlapping(ctx, r.db, q, false)
}

// OccupiedSlots lists the occupied intervals of a table on one
// calendar day, ordered by start time.
func (r *ReservationRepo) OccupiedSlots(ctx context.Context, tableID, restaurantID string, day time.Time) ([]booking.Window, error) {
	const query = `SELECT start_time, end_time FROM reservations
        WHERE table_id = ? AND restaurant_id = ?
        AND status IN ('pending', 'confirmed')
        AND DATE(start_time) = ?
        ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, query, tableID, restaurantID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	wins := make([]booking.Window, 0)
	for rows.Next() {
		var w booking.Window
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, err
		}
		wins = append(wins, w)
	}
	return wins, rows.Err()
}

// Transact runs fn inside one SQL transaction and commits only when
// fn returns nil.  Any error from fn or from Commit leaves the
// database untouched.
func (r *ReservationRepo) Transact(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(reservationTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// reservationTx is the transactional scope handed to the booking
// engine.  Its overlap probe locks rows so the availability check and
// the subsequent write are atomic.
type reservationTx struct {
	tx *sql.Tx
}

func (t reservationTx) LookupTable(ctx context.Context, tableID, restaurantID string) (booking.TableInfo, error) {
	return lookupTable(ctx, t.tx, tableID, restaurantID)
}

func (t reservationTx) FindOverlapping(ctx context.Context, q booking.OverlapQuery) (*booking.Window, error) {
	return findOverlapping(ctx, t.tx, q, true)
}

func (t reservationTx) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return getReservation(ctx, t.tx, id)
}

func (t reservationTx) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (` + reservationColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, q,
		res.ID, res.UserID, res.RestaurantID, res.TableID,
		res.StartTime, res.EndTime, res.PartySize, res.Notes,
		res.Status, res.CreatedAt, res.UpdatedAt,
	)
	return err
}

func (t reservationTx) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET user_id = ?, restaurant_id = ?, table_id = ?,
        start_time = ?, end_time = ?, party_size = ?, notes = ?, status = ?, updated_at = ?
        WHERE id = ?`
	result, err := t.tx.ExecContext(ctx, q,
		res.UserID, res.RestaurantID, res.TableID,
		res.StartTime, res.EndTime, res.PartySize, res.Notes,
		res.Status, res.UpdatedAt, res.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	// RowsAffected is 0 both when the row vanished and when nothing
	// changed; re-check existence only in the former case.
	if n == 0 {
		if _, err := getReservation(ctx, t.tx, res.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReservationDetail is a reservation joined with the names a listing
// needs: who booked, where, and which table.
type ReservationDetail struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	TableID        string    `json:"table_id"`
	TableNumber    uint32    `json:"table_number"`
	TableCapacity  uint32    `json:"table_capacity"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	PartySize      uint32    `json:"party_size"`
	Notes          *string   `json:"notes,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const reservationDetailSelect = `SELECT res.id, res.user_id, u.name, res.restaurant_id, r.name,
        res.table_id, t.number, t.capacity, res.start_time, res.end_time,
        res.party_size, res.notes, res.status, res.created_at, res.updated_at
        FROM reservations res
        JOIN users u ON u.id = res.user_id
        JOIN restaurants r ON r.id = res.restaurant_id
        JOIN tables t ON t.id = res.table_id`

func scanReservationDetail(row rowScanner) (*ReservationDetail, error) {
	var d ReservationDetail
	var notes sql.NullString
	err := row.Scan(
		&d.ID, &d.UserID, &d.UserName, &d.RestaurantID, &d.RestaurantName,
		&d.TableID, &d.TableNumber, &d.TableCapacity, &d.StartTime, &d.EndTime,
		&d.PartySize, &notes, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		n := notes.String
		d.Notes = &n
	}
	return &d, nil
}

// ReservationFilter narrows reservation listings.  Zero values mean
// no filtering on that dimension.  OwnerID restricts results to
// reservations at restaurants owned by that user.
type ReservationFilter struct {
	UserID       string
	RestaurantID string
	OwnerID      string
	Status       string
	Limit        int
	Offset       int
}

func (f ReservationFilter) conditions() (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.UserID != "" {
		conds = append(conds, "res.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.RestaurantID != "" {
		conds = append(conds, "res.restaurant_id = ?")
		args = append(args, f.RestaurantID)
	}
	if f.OwnerID != "" {
		conds = append(conds, "r.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		conds = append(conds, "res.status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListDetails returns reservations matching the filter with user,
// restaurant and table info joined in, ordered by start time.
func (r *ReservationRepo) ListDetails(ctx context.Context, f ReservationFilter) ([]ReservationDetail, error) {
	where, args := f.conditions()
	query := reservationDetailSelect + where + ` ORDER BY res.start_time ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// CountDetails returns the total number of reservations matching the
// filter, for pagination metadata.
func (r *ReservationRepo) CountDetails(ctx context.Context, f ReservationFilter) (int, error) {
	where, args := f.conditions()
	query := `SELECT COUNT(*) FROM reservations res
        JOIN restaurants r ON r.id = res.restaurant_id` + where
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// GetDetail returns one reservation with its joined names, or
// booking.ErrReservationUnknown.
func (r *ReservationRepo) GetDetail(ctx context.Context, id string) (*ReservationDetail, error) {
	query := reservationDetailSelect + ` WHERE res.id = ?`
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, booking.ErrReservationUnknown
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a reservation permanently.  Returns
// booking.ErrReservationUnknown when no row matched.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationUnknown
	}
	return nil
}

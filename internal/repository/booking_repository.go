package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/uninest/internal/model"
)

// BookingRepo provides data access to the bookings table.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = "b.id, b.student_id, b.time_slot_id, b.library_id, b.slot_date, b.start_time, b.end_time, b.seats_booked, b.status, b.created_at, b.updated_at"

// Create inserts b and fills in its ID.  Callers reserve the seats first in
// the same transaction.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (student_id, time_slot_id, library_id, slot_date, start_time, end_time, seats_booked, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		b.StudentID, b.TimeSlotID, b.LibraryID, b.Date, b.StartTime, b.EndTime, b.SeatsBooked, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches one booking.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ?", id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MarkCancelled flips a confirmed booking to cancelled.  A booking that is
// not confirmed any more yields ErrConflict.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE bookings SET status = 'cancelled', updated_at = ? WHERE id = ? AND status = 'confirmed'", at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListByStudent returns a student's bookings, newest first.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.student_id = ? ORDER BY b.created_at DESC, b.id DESC", studentID)
}

// ListByOwner returns the bookings made against any library owned by ownerID.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Booking, error) {
	const q = "SELECT " + bookingColumns + ` FROM bookings b
	JOIN libraries l ON l.id = b.library_id
	WHERE l.owner_id = ? ORDER BY b.created_at DESC, b.id DESC`
	return r.list(ctx, q, ownerID)
}

// ListRecent returns the newest limit bookings across the platform.
func (r *BookingRepo) ListRecent(ctx context.Context, limit int) ([]model.Booking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM bookings b ORDER BY b.created_at DESC, b.id DESC LIMIT ?", limit)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	err := s.Scan(&b.ID, &b.StudentID, &b.TimeSlotID, &b.LibraryID, &b.Date, &b.StartTime, &b.EndTime, &b.SeatsBooked, &status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	return b, nil
}

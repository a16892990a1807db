package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/uninest/internal/model"
)

// TimeSlotRepo provides data access to the time_slots table.  The
// booked_seats counter is only ever changed through Reserve and Release,
// each a single conditional UPDATE, so concurrent bookings can never push
// it past available_seats or below zero.
type TimeSlotRepo struct {
	db *sql.DB
}

func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

const slotColumns = "id, library_id, slot_date, start_time, end_time, available_seats, booked_seats, created_at"

// Create inserts s with booked_seats = 0 and fills in its ID.
func (r *TimeSlotRepo) Create(ctx context.Context, s *model.TimeSlot) error {
	const q = `INSERT INTO time_slots (library_id, slot_date, start_time, end_time, available_seats, booked_seats, created_at)
	VALUES (?, ?, ?, ?, ?, 0, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, s.LibraryID, s.Date, s.StartTime, s.EndTime, s.AvailableSeats, s.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.BookedSeats = 0
	return nil
}

// GetByID fetches one slot.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	var s model.TimeSlot
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+slotColumns+" FROM time_slots WHERE id = ?", id).
		Scan(&s.ID, &s.LibraryID, &s.Date, &s.StartTime, &s.EndTime, &s.AvailableSeats, &s.BookedSeats, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByLibrary returns the slots of a library ordered by date and start.
func (r *TimeSlotRepo) ListByLibrary(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE library_id = ? ORDER BY slot_date, start_time, id", libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TimeSlot{}
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.LibraryID, &s.Date, &s.StartTime, &s.EndTime, &s.AvailableSeats, &s.BookedSeats, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Reserve adds seats to booked_seats when they fit.  When no row is
// updated it tells a missing slot (ErrNotFound) apart from a full one
// (ErrCapacityExceeded).
func (r *TimeSlotRepo) Reserve(ctx context.Context, slotID uint64, seats int) error {
	const q = `UPDATE time_slots SET booked_seats = booked_seats + ?
	WHERE id = ? AND booked_seats + ? <= available_seats`
	return r.adjust(ctx, q, slotID, seats, ErrCapacityExceeded)
}

// Release gives seats back.  It never drops booked_seats below zero; an
// attempt to do so yields ErrConflict.
func (r *TimeSlotRepo) Release(ctx context.Context, slotID uint64, seats int) error {
	const q = `UPDATE time_slots SET booked_seats = booked_seats - ?
	WHERE id = ? AND booked_seats >= ?`
	return r.adjust(ctx, q, slotID, seats, ErrConflict)
}

func (r *TimeSlotRepo) adjust(ctx context.Context, q string, slotID uint64, seats int, noMatch error) error {
	c := conn(ctx, r.db)
	res, err := c.ExecContext(ctx, q, seats, slotID, seats)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	err = c.QueryRowContext(ctx, "SELECT 1 FROM time_slots WHERE id = ?", slotID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return noMatch
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/queue"
	"github.com/iliyamo/uninest/internal/repository"
)

// AdminBookingLimit caps the platform wide listing shown to admins.
const AdminBookingLimit = 100

// BookingService books seats for students.  The seat reservation and the
// booking row are written in one transaction, so a failed booking never
// keeps seats.
type BookingService struct {
	tx       TxRunner
	slots    *SlotService
	slotRepo SlotStore
	libs     LibraryStore
	bookings BookingStore
	o        options
}

func NewBookingService(tx TxRunner, slots *SlotService, slotRepo SlotStore, libs LibraryStore, bookings BookingStore, opts ...Option) *BookingService {
	return &BookingService{tx: tx, slots: slots, slotRepo: slotRepo, libs: libs, bookings: bookings, o: buildOptions(opts)}
}

// CreateBooking reserves seats on slotID for the calling student.
func (s *BookingService) CreateBooking(ctx context.Context, p model.Principal, slotID uint64, seats int) (*model.Booking, error) {
	if p.Role != model.RoleStudent {
		s.o.metrics.BookingOutcome("forbidden")
		return nil, forbidden("only students can book seats")
	}
	if seats < 1 {
		s.o.metrics.BookingOutcome("invalid")
		return nil, invalid("seats must be at least 1")
	}

	var booking *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.slots.Reserve(ctx, slotID, seats); err != nil {
			return err
		}
		slot, err := s.slotRepo.GetByID(ctx, slotID)
		if err != nil {
			return fmt.Errorf("load slot: %w", err)
		}
		now := s.o.clock()
		b := &model.Booking{
			StudentID:   p.UserID,
			TimeSlotID:  slot.ID,
			LibraryID:   slot.LibraryID,
			Date:        slot.Date,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			SeatsBooked: seats,
			Status:      model.BookingConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.bookings.Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		s.o.metrics.BookingOutcome(outcomeOf(err))
		if KindOf(err) == "" {
			s.o.log.Error("booking failed", "slot_id", slotID, "student_id", p.UserID, "err", err)
		}
		return nil, err
	}

	s.o.metrics.BookingOutcome("confirmed")
	s.o.metrics.SeatsReserved(seats)
	s.o.log.Info("booking confirmed", "booking_id", booking.ID, "slot_id", slotID, "student_id", p.UserID, "seats", seats)
	s.o.publish(ctx, queue.BookingConfirmedQueue, bookingEvent(booking))
	return booking, nil
}

// CancelBooking moves a confirmed booking to cancelled and gives its seats
// back.  The booking's student or the owner of its library may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, p model.Principal, bookingID uint64) (*model.Booking, error) {
	var booking *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("booking %d not found", bookingID)
		}
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if err := s.canCancel(ctx, p, b); err != nil {
			return err
		}
		now := s.o.clock()
		if err := s.bookings.MarkCancelled(ctx, b.ID, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return conflict("booking %d is already %s", b.ID, b.Status)
			}
			return fmt.Errorf("cancel booking: %w", err)
		}
		if err := s.slots.Release(ctx, b.TimeSlotID, b.SeatsBooked); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		b.UpdatedAt = now
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.o.metrics.BookingOutcome("cancelled")
	s.o.log.Info("booking cancelled", "booking_id", booking.ID, "slot_id", booking.TimeSlotID, "by", p.UserID)
	s.o.publish(ctx, queue.BookingCancelledQueue, bookingEvent(booking))
	return booking, nil
}

func (s *BookingService) canCancel(ctx context.Context, p model.Principal, b *model.Booking) error {
	switch p.Role {
	case model.RoleStudent:
		if b.StudentID == p.UserID {
			return nil
		}
	case model.RoleLibrary:
		lib, err := s.libs.GetByID(ctx, b.LibraryID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("load library: %w", err)
		}
		if err == nil && lib.OwnerID == p.UserID {
			return nil
		}
	}
	return forbidden("you cannot cancel this booking")
}

// ListMyBookings is scoped by role: students see their own bookings,
// library owners the bookings of their libraries and admins the most
// recent bookings on the platform.
func (s *BookingService) ListMyBookings(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	var (
		out []model.Booking
		err error
	)
	switch p.Role {
	case model.RoleStudent:
		out, err = s.bookings.ListByStudent(ctx, p.UserID)
	case model.RoleLibrary:
		out, err = s.bookings.ListByOwner(ctx, p.UserID)
	case model.RoleAdmin:
		out, err = s.bookings.ListRecent(ctx, AdminBookingLimit)
	default:
		return nil, forbidden("unknown role")
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func outcomeOf(err error) string {
	switch KindOf(err) {
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindNotFound:
		return "not_found"
	case "":
		return "error"
	default:
		return "rejected"
	}
}

func bookingEvent(b *model.Booking) queue.BookingEvent {
	return queue.BookingEvent{
		BookingID:  b.ID,
		StudentID:  b.StudentID,
		LibraryID:  b.LibraryID,
		TimeSlotID: b.TimeSlotID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Seats:      b.SeatsBooked,
		Status:     string(b.Status),
		OccurredAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/repository"
)

// SlotInput is the payload for publishing a time slot.
type SlotInput struct {
	LibraryID      uint64 `json:"library_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	AvailableSeats int    `json:"available_seats"`
}

// SlotService publishes time slots and owns the seat counters on them.
type SlotService struct {
	libs   LibraryStore
	slots  SlotStore
	ledger *Ledger
	o      options
}

func NewSlotService(libs LibraryStore, slots SlotStore, ledger *Ledger, opts ...Option) *SlotService {
	return &SlotService{libs: libs, slots: slots, ledger: ledger, o: buildOptions(opts)}
}

// CreateSlot publishes a slot for a library the caller owns.  Creation is
// refused unless the library has a running trial or paid period.
func (s *SlotService) CreateSlot(ctx context.Context, p model.Principal, in SlotInput) (*model.TimeSlot, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	lib, err := s.libs.GetByID(ctx, in.LibraryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("library %d not found", in.LibraryID)
	}
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	if p.Role != model.RoleLibrary || lib.OwnerID != p.UserID {
		return nil, forbidden("only the library owner can publish time slots")
	}
	active, err := s.ledger.IsActive(ctx, lib.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, &Error{Kind: KindSubscriptionRequired, Msg: "an active subscription is required to publish time slots"}
	}

	slot := &model.TimeSlot{
		LibraryID:      lib.ID,
		Date:           in.Date,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		AvailableSeats: in.AvailableSeats,
		CreatedAt:      s.o.clock(),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	s.o.log.Info("time slot created", "slot_id", slot.ID, "library_id", lib.ID, "date", slot.Date, "seats", slot.AvailableSeats)
	return slot, nil
}

// ListSlots returns the published slots of a library.
func (s *SlotService) ListSlots(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error) {
	if _, err := s.libs.GetByID(ctx, libraryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("library %d not found", libraryID)
		}
		return nil, fmt.Errorf("load library: %w", err)
	}
	slots, err := s.slots.ListByLibrary(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Reserve consumes seats on a slot in one conditional write.
func (s *SlotService) Reserve(ctx context.Context, slotID uint64, seats int) error {
	if seats < 1 {
		return invalid("seats must be at least 1")
	}
	switch err := s.slots.Reserve(ctx, slotID, seats); {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("time slot %d not found", slotID)
	case errors.Is(err, repository.ErrCapacityExceeded):
		return &Error{Kind: KindCapacityExceeded, Msg: fmt.Sprintf("not enough seats left in time slot %d", slotID)}
	default:
		return fmt.Errorf("reserve seats: %w", err)
	}
}

// Release hands seats back to a slot.
func (s *SlotService) Release(ctx context.Context, slotID uint64, seats int) error {
	switch err := s.slots.Release(ctx, slotID, seats); {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("time slot %d not found", slotID)
	case errors.Is(err, repository.ErrConflict):
		return conflict("time slot %d has fewer than %d booked seats", slotID, seats)
	default:
		return fmt.Errorf("release seats: %w", err)
	}
}

func (in *SlotInput) normalize() error {
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)

	if in.LibraryID == 0 {
		return invalid("library_id is required")
	}
	if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
		return invalid("date must be YYYY-MM-DD")
	}
	start, err := time.Parse(model.ClockLayout, in.StartTime)
	if err != nil {
		return invalid("start_time must be HH:MM")
	}
	end, err := time.Parse(model.ClockLayout, in.EndTime)
	if err != nil {
		return invalid("end_time must be HH:MM")
	}
	if !start.Before(end) {
		return invalid("start_time must be before end_time")
	}
	if in.AvailableSeats < 1 {
		return invalid("available_seats must be at least 1")
	}
	in.StartTime = start.Format(model.ClockLayout)
	in.EndTime = end.Format(model.ClockLayout)
	return nil
}

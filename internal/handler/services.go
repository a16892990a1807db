package handler

import (
	"context"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/service"
)

// The interfaces below are the slices of the service layer each handler
// calls.  *service.LibraryService and friends satisfy them.

type libraryService interface {
	CreateLibrary(ctx context.Context, p model.Principal, in service.LibraryInput) (*service.LibraryProfile, error)
	GetMyLibrary(ctx context.Context, p model.Principal) (*model.Library, error)
	ListLibraries(ctx context.Context, location string) ([]model.Library, error)
}

type slotService interface {
	CreateSlot(ctx context.Context, p model.Principal, in service.SlotInput) (*model.TimeSlot, error)
	ListSlots(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error)
}

type bookingService interface {
	CreateBooking(ctx context.Context, p model.Principal, slotID uint64, seats int) (*model.Booking, error)
	CancelBooking(ctx context.Context, p model.Principal, bookingID uint64) (*model.Booking, error)
	ListMyBookings(ctx context.Context, p model.Principal) ([]model.Booking, error)
}

type subscriptionLedger interface {
	GetCurrent(ctx context.Context, libraryID uint64) (*service.CurrentSubscription, error)
	History(ctx context.Context, libraryID uint64) ([]service.PeriodView, error)
}

type paymentService interface {
	CreateOrder(ctx context.Context, p model.Principal, planID string) (*service.OrderResponse, error)
	VerifyPayment(ctx context.Context, p model.Principal, orderID, paymentID, signature string) (*service.Confirmation, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*service.Confirmation, error)
}

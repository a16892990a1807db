package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/uninest/internal/logger"
	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/subscription"
)

const (
	testKeySecret     = "rzp_test_secret"
	testWebhookSecret = "rzp_webhook_secret"
)

var (
	owner    = model.Principal{UserID: 100, Role: model.RoleLibrary}
	stranger = model.Principal{UserID: 101, Role: model.RoleLibrary}
	student  = model.Principal{UserID: 200, Role: model.RoleStudent}
	student2 = model.Principal{UserID: 201, Role: model.RoleStudent}
	admin    = model.Principal{UserID: 1, Role: model.RoleAdmin}
)

type fixture struct {
	store *memStore
	clock *testClock
	pub   *fakePublisher
	rec   *fakeRecorder
	gw    *fakeGateway

	ledger    *Ledger
	slots     *SlotService
	bookings  *BookingService
	libraries *LibraryService
	payments  *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		clock: newTestClock(),
		pub:   &fakePublisher{},
		rec:   newFakeRecorder(),
		gw:    &fakeGateway{},
	}
	opts := []Option{
		WithClock(f.clock.Now),
		WithLogger(logger.Discard()),
		WithPublisher(f.pub),
		WithRecorder(f.rec),
	}
	catalog := subscription.MustDefault()
	libs, slots, subs := memLibraries{f.store}, memSlots{f.store}, memSubs{f.store}

	f.ledger = NewLedger(subs, catalog, opts...)
	f.slots = NewSlotService(libs, slots, f.ledger, opts...)
	f.bookings = NewBookingService(f.store, f.slots, slots, libs, memBookings{f.store}, opts...)
	f.libraries = NewLibraryService(f.store, libs, f.ledger, opts...)
	f.payments = NewPaymentService(f.store, memOrders{f.store}, subs, libs, f.ledger, catalog, f.gw,
		PaymentConfig{KeyID: "rzp_test_key", KeySecret: testKeySecret, WebhookSecret: testWebhookSecret}, opts...)
	return f
}

// library creates a library for p through the profile service, which also
// grants the trial.
func (f *fixture) library(t *testing.T, p model.Principal) *model.Library {
	t.Helper()
	prof, err := f.libraries.CreateLibrary(context.Background(), p, LibraryInput{Name: "Quiet Corner", Location: "Pune", TotalSeats: 40})
	require.NoError(t, err)
	return prof.Library
}

// bareLibrary inserts a library without any subscription period.
func (f *fixture) bareLibrary(t *testing.T, ownerID uint64) *model.Library {
	t.Helper()
	l := &model.Library{OwnerID: ownerID, Name: "No Plan", Location: "Delhi", TotalSeats: 10}
	require.NoError(t, memLibraries{f.store}.Create(context.Background(), l))
	return l
}

func (f *fixture) slot(t *testing.T, lib *model.Library, seats int) *model.TimeSlot {
	t.Helper()
	s, err := f.slots.CreateSlot(context.Background(), model.Principal{UserID: lib.OwnerID, Role: model.RoleLibrary}, SlotInput{
		LibraryID: lib.ID, Date: "2024-06-10", StartTime: "09:00", EndTime: "13:00", AvailableSeats: seats,
	})
	require.NoError(t, err)
	return s
}

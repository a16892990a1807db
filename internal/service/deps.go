package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/uninest/internal/model"
)

// The store interfaces are satisfied by the MySQL repositories in
// internal/repository.  Every method must join the transaction carried by
// ctx when there is one.

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	Create(ctx context.Context, u model.User, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type LibraryStore interface {
	Create(ctx context.Context, l *model.Library) error
	GetByID(ctx context.Context, id uint64) (*model.Library, error)
	GetByOwner(ctx context.Context, ownerID uint64) (*model.Library, error)
	List(ctx context.Context, location string) ([]model.Library, error)
}

type SlotStore interface {
	Create(ctx context.Context, s *model.TimeSlot) error
	GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error)
	ListByLibrary(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error)
	Reserve(ctx context.Context, slotID uint64, seats int) error
	Release(ctx context.Context, slotID uint64, seats int) error
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	MarkCancelled(ctx context.Context, id uint64, at time.Time) error
	ListByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Booking, error)
	ListRecent(ctx context.Context, limit int) ([]model.Booking, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, p *model.SubscriptionPeriod) error
	ListActive(ctx context.Context, libraryID uint64, now time.Time) ([]model.SubscriptionPeriod, error)
	ListByLibrary(ctx context.Context, libraryID uint64) ([]model.SubscriptionPeriod, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.SubscriptionPeriod, error)
}

type PaymentOrderStore interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	MarkCompleted(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error)
}

// Publisher delivers domain events.  Failures are logged by the caller and
// never fail the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// Recorder receives business counters.
type Recorder interface {
	BookingOutcome(outcome string)
	SeatsReserved(n int)
	SubscriptionActivated(kind string)
}

// Clock returns the current time.  Services call it once per operation.
type Clock func() time.Time

type options struct {
	now     Clock
	log     *slog.Logger
	pub     Publisher
	metrics Recorder
}

// Option customizes a service.
type Option func(*options)

func WithClock(c Clock) Option         { return func(o *options) { o.now = c } }
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }
func WithPublisher(p Publisher) Option { return func(o *options) { o.pub = p } }
func WithRecorder(r Recorder) Option   { return func(o *options) { o.metrics = r } }

func buildOptions(opts []Option) options {
	o := options{
		now:     func() time.Time { return time.Now().UTC() },
		log:     slog.Default(),
		pub:     nopPublisher{},
		metrics: nopRecorder{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// clock returns now normalized to UTC.
func (o options) clock() time.Time { return o.now().UTC() }

// publish sends event on queue and only logs a failure.
func (o options) publish(ctx context.Context, queue string, event any) {
	if err := o.pub.Publish(ctx, queue, event); err != nil {
		o.log.Warn("event publish failed", "queue", queue, "err", err)
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

type nopRecorder struct{}

func (nopRecorder) BookingOutcome(string)        {}
func (nopRecorder) SeatsReserved(int)            {}
func (nopRecorder) SubscriptionActivated(string) {}

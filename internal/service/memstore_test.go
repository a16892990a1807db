package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/payment"
	"github.com/iliyamo/uninest/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  Every
// method takes the store lock, which gives the same per-row atomicity as
// the conditional UPDATEs, and writes made inside WithinTx are undone when
// the unit of work fails.
type memStore struct {
	mu     sync.Mutex
	nextID uint64

	users     map[uint64]model.User
	libraries map[uint64]model.Library
	slots     map[uint64]model.TimeSlot
	bookings  map[uint64]model.Booking
	periods   map[uint64]model.SubscriptionPeriod
	orders    map[string]model.PaymentOrder

	failBookingCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uint64]model.User{},
		libraries: map[uint64]model.Library{},
		slots:     map[uint64]model.TimeSlot{},
		bookings:  map[uint64]model.Booking{},
		periods:   map[uint64]model.SubscriptionPeriod{},
		orders:    map[string]model.PaymentOrder{},
	}
}

type memTxKey struct{}

type memTx struct{ undo []func() }

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}
	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// onRollback registers undo; m.mu must be held.
func (m *memStore) onRollback(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) slot(id uint64) model.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memStore) periodCount(libraryID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.periods {
		if p.LibraryID == libraryID {
			n++
		}
	}
	return n
}

// ---- users ----

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u model.User, password string, _ int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	u.ID = m.id()
	u.PasswordHash = "hashed:" + password
	u.IsActive = true
	m.users[u.ID] = u
	return u.ID, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// ---- libraries ----

type memLibraries struct{ *memStore }

func (m memLibraries) Create(ctx context.Context, l *model.Library) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.libraries {
		if other.OwnerID == l.OwnerID {
			return repository.ErrConflict
		}
	}
	l.ID = m.id()
	m.libraries[l.ID] = *l
	id := l.ID
	m.onRollback(ctx, func() { delete(m.libraries, id) })
	return nil
}

func (m memLibraries) GetByID(_ context.Context, id uint64) (*model.Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.libraries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (m memLibraries) GetByOwner(_ context.Context, ownerID uint64) (*model.Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.libraries {
		if l.OwnerID == ownerID {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memLibraries) List(_ context.Context, location string) ([]model.Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Library{}
	for _, l := range m.libraries {
		if strings.Contains(strings.ToLower(l.Location), strings.ToLower(strings.TrimSpace(location))) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- time slots ----

type memSlots struct{ *memStore }

func (m memSlots) Create(ctx context.Context, s *model.TimeSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	s.BookedSeats = 0
	m.slots[s.ID] = *s
	id := s.ID
	m.onRollback(ctx, func() { delete(m.slots, id) })
	return nil
}

func (m memSlots) GetByID(_ context.Context, id uint64) (*model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m memSlots) ListByLibrary(_ context.Context, libraryID uint64) ([]model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TimeSlot{}
	for _, s := range m.slots {
		if s.LibraryID == libraryID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memSlots) Reserve(ctx context.Context, slotID uint64, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.BookedSeats+seats > s.AvailableSeats {
		return repository.ErrCapacityExceeded
	}
	s.BookedSeats += seats
	m.slots[slotID] = s
	m.onRollback(ctx, func() {
		s := m.slots[slotID]
		s.BookedSeats -= seats
		m.slots[slotID] = s
	})
	return nil
}

func (m memSlots) Release(ctx context.Context, slotID uint64, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.BookedSeats < seats {
		return repository.ErrConflict
	}
	s.BookedSeats -= seats
	m.slots[slotID] = s
	m.onRollback(ctx, func() {
		s := m.slots[slotID]
		s.BookedSeats += seats
		m.slots[slotID] = s
	})
	return nil
}

// ---- bookings ----

type memBookings struct{ *memStore }

func (m memBookings) Create(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBookingCreate != nil {
		return m.failBookingCreate
	}
	b.ID = m.id()
	m.bookings[b.ID] = *b
	id := b.ID
	m.onRollback(ctx, func() { delete(m.bookings, id) })
	return nil
}

func (m memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (m memBookings) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != model.BookingConfirmed {
		return repository.ErrConflict
	}
	prev := b
	b.Status = model.BookingCancelled
	b.UpdatedAt = at
	m.bookings[id] = b
	m.onRollback(ctx, func() { m.bookings[id] = prev })
	return nil
}

func (m memBookings) list(keep func(model.Booking) bool) []model.Booking {
	out := []model.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m memBookings) ListByStudent(_ context.Context, studentID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(b model.Booking) bool { return b.StudentID == studentID }), nil
}

func (m memBookings) ListByOwner(_ context.Context, ownerID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(b model.Booking) bool { return m.libraries[b.LibraryID].OwnerID == ownerID }), nil
}

func (m memBookings) ListRecent(_ context.Context, limit int) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.list(func(model.Booking) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- subscription periods ----

type memSubs struct{ *memStore }

func (m memSubs) Create(ctx context.Context, p *model.SubscriptionPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.periods {
		if other.LibraryID == p.LibraryID && other.IsTrial && p.IsTrial {
			return repository.ErrConflict
		}
		if p.OrderID != "" && other.OrderID == p.OrderID {
			return repository.ErrConflict
		}
	}
	p.ID = m.id()
	m.periods[p.ID] = *p
	id := p.ID
	m.onRollback(ctx, func() { delete(m.periods, id) })
	return nil
}

func (m memSubs) ListActive(_ context.Context, libraryID uint64, now time.Time) ([]model.SubscriptionPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SubscriptionPeriod{}
	for _, p := range m.periods {
		if p.LibraryID == libraryID && p.Status == model.SubscriptionActive && p.EndDate.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memSubs) ListByLibrary(_ context.Context, libraryID uint64) ([]model.SubscriptionPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SubscriptionPeriod{}
	for _, p := range m.periods {
		if p.LibraryID == libraryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memSubs) GetByOrderID(_ context.Context, orderID string) (*model.SubscriptionPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ---- payment orders ----

type memOrders struct{ *memStore }

func (m memOrders) Create(_ context.Context, o *model.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.orders[o.OrderID]; dup {
		return repository.ErrConflict
	}
	o.ID = m.id()
	m.orders[o.OrderID] = *o
	return nil
}

func (m memOrders) GetByOrderID(_ context.Context, orderID string) (*model.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (m memOrders) MarkCompleted(ctx context.Context, orderID, paymentID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != model.PaymentOrderCreated {
		return false, nil
	}
	prev := o
	o.Status = model.PaymentOrderCompleted
	o.PaymentID = paymentID
	o.UpdatedAt = at
	m.orders[orderID] = o
	m.onRollback(ctx, func() { m.orders[orderID] = prev })
	return true, nil
}

// ---- collaborators ----

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordedEvent struct {
	Queue string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, queue string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Queue: queue, Event: event})
	return nil
}

func (p *fakePublisher) queues() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Queue
	}
	return out
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	seats    int
	activ    map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: map[string]int{}, activ: map[string]int{}}
}

func (r *fakeRecorder) BookingOutcome(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *fakeRecorder) SeatsReserved(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seats += n
}

func (r *fakeRecorder) SubscriptionActivated(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activ[kind]++
}

type fakeGateway struct {
	mu    sync.Mutex
	n     int
	calls []payment.OrderRequest
	err   error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return payment.Order{}, g.err
	}
	g.n++
	g.calls = append(g.calls, req)
	return payment.Order{ID: "order_test_" + string(rune('a'+g.n-1)), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

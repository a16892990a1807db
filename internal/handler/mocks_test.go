package handler

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/repository"
	"github.com/iliyamo/uninest/internal/service"
	"github.com/iliyamo/uninest/internal/utils"
)

// --- Mock accounts ---

type mockUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
}

func newMockUsers() *mockUsers { return &mockUsers{byID: map[uint64]model.User{}} }

func (m *mockUsers) Create(_ context.Context, u model.User, password string, _ int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
		if other.Phone == u.Phone {
			return 0, repository.ErrPhoneExists
		}
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	m.nextID++
	u.ID = m.nextID
	u.PasswordHash = hash
	m.byID[u.ID] = u
	return u.ID, nil
}

func (m *mockUsers) GetByIdentifier(_ context.Context, ident string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == ident || u.Phone == ident {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *mockUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type storedToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type mockTokens struct {
	mu   sync.Mutex
	rows map[string]*storedToken
}

func newMockTokens() *mockTokens { return &mockTokens{rows: map[string]*storedToken{}} }

func (m *mockTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = &storedToken{userID: userID, exp: exp}
	return nil
}

func (m *mockTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok || t.revoked || !now.Before(t.exp) {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (m *mockTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (m *mockTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (m *mockTokens) active(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.rows {
		if t.userID == userID && !t.revoked {
			n++
		}
	}
	return n
}

// --- Mock services ---

type mockBookingService struct {
	createFn func(ctx context.Context, p model.Principal, slotID uint64, seats int) (*model.Booking, error)
	cancelFn func(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error)
	listFn   func(ctx context.Context, p model.Principal) ([]model.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, p model.Principal, slotID uint64, seats int) (*model.Booking, error) {
	return m.createFn(ctx, p, slotID, seats)
}
func (m *mockBookingService) CancelBooking(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	return m.cancelFn(ctx, p, id)
}
func (m *mockBookingService) ListMyBookings(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	return m.listFn(ctx, p)
}

type mockSlotService struct {
	createFn func(ctx context.Context, p model.Principal, in service.SlotInput) (*model.TimeSlot, error)
	listFn   func(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error)
}

func (m *mockSlotService) CreateSlot(ctx context.Context, p model.Principal, in service.SlotInput) (*model.TimeSlot, error) {
	return m.createFn(ctx, p, in)
}
func (m *mockSlotService) ListSlots(ctx context.Context, libraryID uint64) ([]model.TimeSlot, error) {
	return m.listFn(ctx, libraryID)
}

type mockLibraryService struct {
	createFn func(ctx context.Context, p model.Principal, in service.LibraryInput) (*service.LibraryProfile, error)
	mineFn   func(ctx context.Context, p model.Principal) (*model.Library, error)
	listFn   func(ctx context.Context, location string) ([]model.Library, error)
}

func (m *mockLibraryService) CreateLibrary(ctx context.Context, p model.Principal, in service.LibraryInput) (*service.LibraryProfile, error) {
	return m.createFn(ctx, p, in)
}
func (m *mockLibraryService) GetMyLibrary(ctx context.Context, p model.Principal) (*model.Library, error) {
	return m.mineFn(ctx, p)
}
func (m *mockLibraryService) ListLibraries(ctx context.Context, location string) ([]model.Library, error) {
	return m.listFn(ctx, location)
}

type mockLedger struct {
	currentFn func(ctx context.Context, libraryID uint64) (*service.CurrentSubscription, error)
	historyFn func(ctx context.Context, libraryID uint64) ([]service.PeriodView, error)
}

func (m *mockLedger) GetCurrent(ctx context.Context, libraryID uint64) (*service.CurrentSubscription, error) {
	return m.currentFn(ctx, libraryID)
}
func (m *mockLedger) History(ctx context.Context, libraryID uint64) ([]service.PeriodView, error) {
	return m.historyFn(ctx, libraryID)
}

type mockPaymentService struct {
	orderFn   func(ctx context.Context, p model.Principal, planID string) (*service.OrderResponse, error)
	verifyFn  func(ctx context.Context, p model.Principal, orderID, paymentID, sig string) (*service.Confirmation, error)
	webhookFn func(ctx context.Context, body []byte, sig string) (*service.Confirmation, error)
}

func (m *mockPaymentService) CreateOrder(ctx context.Context, p model.Principal, planID string) (*service.OrderResponse, error) {
	return m.orderFn(ctx, p, planID)
}
func (m *mockPaymentService) VerifyPayment(ctx context.Context, p model.Principal, orderID, paymentID, sig string) (*service.Confirmation, error) {
	return m.verifyFn(ctx, p, orderID, paymentID, sig)
}
func (m *mockPaymentService) HandleWebhook(ctx context.Context, body []byte, sig string) (*service.Confirmation, error) {
	return m.webhookFn(ctx, body, sig)
}

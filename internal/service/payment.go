package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/payment"
	"github.com/iliyamo/uninest/internal/repository"
	"github.com/iliyamo/uninest/internal/subscription"
)

const currencyINR = "INR"

// PaymentConfig carries the gateway credentials the service needs.
type PaymentConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// OrderResponse is returned to the checkout widget.
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	PlanID   string `json:"plan_id"`
}

// Confirmation is the outcome of applying a payment.  Applied is false on
// a replay of an order that was already applied.
type Confirmation struct {
	Subscription *model.SubscriptionPeriod `json:"subscription"`
	Applied      bool                      `json:"applied"`
}

// PaymentService turns confirmed gateway payments into paid periods.
type PaymentService struct {
	tx      TxRunner
	orders  PaymentOrderStore
	subs    SubscriptionStore
	libs    LibraryStore
	ledger  *Ledger
	plans   *subscription.Catalog
	gateway payment.Gateway
	cfg     PaymentConfig
	o       options
}

func NewPaymentService(tx TxRunner, orders PaymentOrderStore, subs SubscriptionStore, libs LibraryStore, ledger *Ledger,
	plans *subscription.Catalog, gateway payment.Gateway, cfg PaymentConfig, opts ...Option) *PaymentService {
	return &PaymentService{
		tx: tx, orders: orders, subs: subs, libs: libs, ledger: ledger,
		plans: plans, gateway: gateway, cfg: cfg, o: buildOptions(opts),
	}
}

// CreateOrder opens a gateway order for planID on behalf of the caller's
// library.
func (s *PaymentService) CreateOrder(ctx context.Context, p model.Principal, planID string) (*OrderResponse, error) {
	if p.Role != model.RoleLibrary {
		return nil, forbidden("only library accounts can buy a subscription")
	}
	plan, err := s.plans.Get(planID)
	if err != nil || plan.IsTrial() {
		return nil, invalid("plan %q cannot be purchased", planID)
	}
	lib, err := s.libs.GetByOwner(ctx, p.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("create a library profile before subscribing")
	}
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}

	receipt := uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   plan.Price,
		Currency: currencyINR,
		Receipt:  receipt,
		Notes:    map[string]string{"library_id": fmt.Sprint(lib.ID), "plan_id": plan.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	now := s.o.clock()
	rec := &model.PaymentOrder{
		OrderID:   order.ID,
		LibraryID: lib.ID,
		UserID:    p.UserID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Currency:  currencyINR,
		Status:    model.PaymentOrderCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store payment order: %w", err)
	}
	s.o.log.Info("payment order created", "order_id", order.ID, "library_id", lib.ID, "plan_id", plan.ID, "receipt", receipt)
	return &OrderResponse{OrderID: order.ID, Amount: plan.Price, Currency: currencyINR, KeyID: s.cfg.KeyID, PlanID: plan.ID}, nil
}

// VerifyPayment checks the checkout callback signature for one of the
// caller's orders and applies the payment.  A bad signature applies
// nothing.
func (s *PaymentService) VerifyPayment(ctx context.Context, p model.Principal, orderID, paymentID, signature string) (*Confirmation, error) {
	if p.Role != model.RoleLibrary {
		return nil, forbidden("only library accounts can verify payments")
	}
	orderID, paymentID = strings.TrimSpace(orderID), strings.TrimSpace(paymentID)
	if orderID == "" || paymentID == "" {
		return nil, invalid("order_id and payment_id are required")
	}
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("payment order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment order: %w", err)
	}
	if order.UserID != p.UserID {
		return nil, forbidden("payment order belongs to another account")
	}
	if !payment.VerifyPaymentSignature(orderID, paymentID, signature, s.cfg.KeySecret) {
		s.o.log.Warn("payment signature rejected", "order_id", orderID)
		return nil, invalid("invalid payment signature")
	}
	return s.ConfirmPayment(ctx, orderID, paymentID)
}

// HandleWebhook authenticates a gateway webhook and applies captured
// payments.  Other events are acknowledged with a nil confirmation.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*Confirmation, error) {
	if !payment.VerifyWebhookSignature(body, signature, s.cfg.WebhookSecret) {
		s.o.log.Warn("webhook signature rejected")
		return nil, invalid("invalid webhook signature")
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return nil, invalid("malformed webhook payload")
	}
	if ev.Event != payment.EventPaymentCaptured {
		s.o.log.Debug("webhook ignored", "event", ev.Event)
		return nil, nil
	}
	entity := ev.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return nil, invalid("webhook payment is missing order_id or id")
	}
	return s.ConfirmPayment(ctx, entity.OrderID, entity.ID)
}

// ConfirmPayment marks the order completed and activates the paid period
// in one transaction.  Only the call that moves the order out of created
// creates a period; replays return the period created the first time.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID, paymentID string) (*Confirmation, error) {
	var res Confirmation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByOrderID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("payment order %s not found", orderID)
		}
		if err != nil {
			return fmt.Errorf("load payment order: %w", err)
		}
		first, err := s.orders.MarkCompleted(ctx, orderID, paymentID, s.o.clock())
		if err != nil {
			return fmt.Errorf("complete payment order: %w", err)
		}
		if !first {
			period, err := s.subs.GetByOrderID(ctx, orderID)
			if errors.Is(err, repository.ErrNotFound) {
				return conflict("payment order %s was completed without a subscription", orderID)
			}
			if err != nil {
				return fmt.Errorf("load subscription: %w", err)
			}
			res.Subscription = period
			return nil
		}
		period, err := s.ledger.ActivatePaid(ctx, order.LibraryID, order.PlanID, PaymentRef{OrderID: orderID, PaymentID: paymentID})
		if err != nil {
			return err
		}
		res.Subscription = period
		res.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		s.ledger.announce(ctx, res.Subscription)
	} else {
		s.o.log.Info("payment already applied", "order_id", orderID)
	}
	return &res, nil
}

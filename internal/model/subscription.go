package model

import "time"

// SubscriptionStatus is the stored status of a subscription period.  A
// period also counts as lapsed when its end date has passed, whatever the
// stored status says.
type SubscriptionStatus string

const (
    SubscriptionActive    SubscriptionStatus = "active"
    SubscriptionExpired   SubscriptionStatus = "expired"
    SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionPeriod is one row of a library's subscription history.
//
// Fields:
//  ID        – primary key identifier.
//  LibraryID – library the period covers.
//  PlanID    – catalog plan (trial, basic, premium).
//  StartDate – UTC start.
//  EndDate   – UTC end; the period is usable while EndDate > now.
//  Status    – active, expired or cancelled.
//  IsTrial   – true for the single free trial of a library.
//  PaymentID – gateway payment id (empty for trials).
//  OrderID   – gateway order id (empty for trials).
type SubscriptionPeriod struct {
    ID        uint64             `json:"id"`
    LibraryID uint64             `json:"library_id"`
    PlanID    string             `json:"plan_id"`
    StartDate time.Time          `json:"start_date"`
    EndDate   time.Time          `json:"end_date"`
    Status    SubscriptionStatus `json:"status"`
    IsTrial   bool               `json:"is_trial"`
    PaymentID string             `json:"payment_id"`
    OrderID   string             `json:"order_id"`
    CreatedAt time.Time          `json:"created_at"`
}

// ActiveAt reports whether the period grants access at now.
func (p SubscriptionPeriod) ActiveAt(now time.Time) bool {
    return p.Status == SubscriptionActive && p.EndDate.After(now)
}

// PaymentOrderStatus tracks a gateway order from creation to capture.
type PaymentOrderStatus string

const (
    PaymentOrderCreated   PaymentOrderStatus = "created"
    PaymentOrderCompleted PaymentOrderStatus = "completed"
)

// PaymentOrder correlates a gateway order with the library and plan it
// pays for.  Amount is in the smallest currency unit (paise).
type PaymentOrder struct {
    ID        uint64             `json:"id"`
    OrderID   string             `json:"order_id"`
    LibraryID uint64             `json:"library_id"`
    UserID    uint64             `json:"user_id"`
    PlanID    string             `json:"plan_id"`
    Amount    int64              `json:"amount"`
    Currency  string             `json:"currency"`
    Status    PaymentOrderStatus `json:"status"`
    PaymentID string             `json:"payment_id,omitempty"`
    CreatedAt time.Time          `json:"created_at"`
    UpdatedAt time.Time          `json:"updated_at"`
}

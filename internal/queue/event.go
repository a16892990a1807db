// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and the booking log consumer.
package queue

// Queue names.  Each event type has its own durable queue on the default
// exchange.
const (
    BookingConfirmedQueue      = "booking.confirmed"
    BookingCancelledQueue      = "booking.cancelled"
    SubscriptionActivatedQueue = "subscription.activated"
)

// BookingEvent is published when a booking is confirmed or cancelled.  It
// carries enough of the slot to be logged without querying the database.
type BookingEvent struct {
    BookingID  uint64 `json:"booking_id"`
    StudentID  uint64 `json:"student_id"`
    LibraryID  uint64 `json:"library_id"`
    TimeSlotID uint64 `json:"time_slot_id"`
    Date       string `json:"date"`
    StartTime  string `json:"start_time"`
    EndTime    string `json:"end_time"`
    Seats      int    `json:"seats"`
    Status     string `json:"status"`
    OccurredAt string `json:"occurred_at"`
}

// SubscriptionActivatedEvent is published when a trial is granted or a
// paid period starts.
type SubscriptionActivatedEvent struct {
    SubscriptionID uint64 `json:"subscription_id"`
    LibraryID      uint64 `json:"library_id"`
    PlanID         string `json:"plan_id"`
    IsTrial        bool   `json:"is_trial"`
    OrderID        string `json:"order_id,omitempty"`
    StartDate      string `json:"start_date"`
    EndDate        string `json:"end_date"`
}

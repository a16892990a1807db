package model

import "time"

// BookingStatus is the lifecycle state of a booking.  The only transition
// is confirmed -> cancelled, which releases the seats back to the slot.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
)

// Booking records seats a student holds in a time slot.  Library, date and
// time are copied from the slot so listings need no join.
type Booking struct {
    ID          uint64        `json:"id"`
    StudentID   uint64        `json:"student_id"`
    TimeSlotID  uint64        `json:"time_slot_id"`
    LibraryID   uint64        `json:"library_id"`
    Date        string        `json:"date"`
    StartTime   string        `json:"start_time"`
    EndTime     string        `json:"end_time"`
    SeatsBooked int           `json:"seats_booked"`
    Status      BookingStatus `json:"status"`
    CreatedAt   time.Time     `json:"created_at"`
    UpdatedAt   time.Time     `json:"updated_at"`
}

package model

import "time"

// Layouts used for the textual slot date and times.
const (
    DateLayout  = "2006-01-02"
    ClockLayout = "15:04"
)

// TimeSlot is a bookable window in a library.  BookedSeats is the running
// total consumed by confirmed bookings and never exceeds AvailableSeats.
//
// Fields:
//  ID             – primary key identifier.
//  LibraryID      – owning library.
//  Date           – calendar day, YYYY-MM-DD.
//  StartTime      – opening time, HH:MM.
//  EndTime        – closing time, HH:MM (after StartTime).
//  AvailableSeats – capacity of the slot.
//  BookedSeats    – seats consumed so far.
type TimeSlot struct {
    ID             uint64    `json:"id"`
    LibraryID      uint64    `json:"library_id"`
    Date           string    `json:"date"`
    StartTime      string    `json:"start_time"`
    EndTime        string    `json:"end_time"`
    AvailableSeats int       `json:"available_seats"`
    BookedSeats    int       `json:"booked_seats"`
    CreatedAt      time.Time `json:"created_at"`
}

// RemainingSeats returns how many seats can still be booked.
func (s TimeSlot) RemainingSeats() int {
    if s.BookedSeats >= s.AvailableSeats {
        return 0
    }
    return s.AvailableSeats - s.BookedSeats
}

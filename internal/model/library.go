package model

import "time"

// Library is a study space owned by exactly one user with role library.
// A library publishes time slots and holds subscription periods.  This
// struct corresponds to a row in the `libraries` table.
type Library struct {
    ID          uint64    `json:"id"`
    OwnerID     uint64    `json:"owner_id"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    Location    string    `json:"location"`
    TotalSeats  int       `json:"total_seats"`
    Facilities  []string  `json:"facilities"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

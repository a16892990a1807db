package model

import (
    "errors"
    "strings"
    "time"
)

// Role is the closed set of principals the platform knows about.  Values
// are stored verbatim in users.role and in the "role" claim of access
// tokens.
type Role string

const (
    RoleStudent Role = "student"
    RoleLibrary Role = "library"
    RoleAdmin   Role = "admin"
)

// ErrInvalidRole is returned by ParseRole for anything outside the enum.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes s and maps it onto a Role.  Unknown values are
// rejected instead of being coerced to a default.
func ParseRole(s string) (Role, error) {
    switch Role(strings.ToLower(strings.TrimSpace(s))) {
    case RoleStudent:
        return RoleStudent, nil
    case RoleLibrary:
        return RoleLibrary, nil
    case RoleAdmin:
        return RoleAdmin, nil
    }
    return "", ErrInvalidRole
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
    switch r {
    case RoleStudent, RoleLibrary, RoleAdmin:
        return true
    }
    return false
}

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  Phone        – unique 10 digit mobile number.
//  Name         – display name.
//  Location     – free form city/area.
//  PasswordHash – bcrypt hashed password.
//  Role         – student, library or admin.
//  IsActive     – false when the account is suspended.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    Phone        string    `json:"phone"`
    Name         string    `json:"name"`
    Location     string    `json:"location"`
    PasswordHash string    `json:"-"`
    Role         Role      `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated caller, as established by the JWT
// middleware.  The core trusts it and performs no credential checks.
type Principal struct {
    UserID uint64
    Role   Role
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}

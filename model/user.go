package model

import "time"

// Role identifies which side of the marketplace an account belongs to.
type Role string

const (
	RoleSinger Role = "singer"
	RoleDj     Role = "dj"
)

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleSinger || r == RoleDj
}

// User represents an account in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	IsActive     bool      `json:"isActive"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy safe to embed in API responses.
func (u *User) Sanitized() User {
	out := *u
	out.PasswordHash = ""
	return out
}

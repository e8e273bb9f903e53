package identity

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
)

// Valid reports whether the role is one of the known enumerated values.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleStaff
}

// Identity is the capability value carried through every component call.
// Components branch on Role, never on raw strings from a token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// IsStaff reports whether the identity holds the elevated role.
func (id Identity) IsStaff() bool {
	return id.Role == RoleStaff
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity derives the capability value for a stored user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

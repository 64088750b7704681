package model

import "github.com/google/uuid"

// Role is the closed set of roles recognised by the authorization gate.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is a known one.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents an account referenced by orders. Account management itself
// lives outside this service; only identity and role are consumed here.
type User struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
	Role  Role      `json:"role" db:"role"`
}

// UserSummary is the buyer detail embedded in an order view.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

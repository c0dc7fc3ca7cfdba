package models

import (
	"time"
)

// Account roles. Students authenticate by index number, everyone else by email.
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

type Account struct {
	ID           string
	Email        string // login identifier for staff; delivery-only contact for students
	IndexNumber  string // empty for staff/admin accounts, canonical upper-case
	PasswordHash string // empty until credentials are provisioned
	Name         string
	AvatarRef    *string
	Role         string // "student", "lecturer", "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Provisioned reports whether the account has login credentials assigned.
func (a *Account) Provisioned() bool {
	return a.PasswordHash != ""
}

// LoginIdentifier returns the identifier the account authenticates with,
// as determined by its role.
func (a *Account) LoginIdentifier() string {
	if a.Role == RoleStudent {
		return a.IndexNumber
	}
	return a.Email
}

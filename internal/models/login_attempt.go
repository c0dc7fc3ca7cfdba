package models

import "time"

// LoginAttempt is an immutable record of one authentication attempt. Rows
// are only ever appended; lockout state is derived from the trailing window
// rather than stored.
type LoginAttempt struct {
	ID          string    `db:"id"`
	Identifier  string    `db:"identifier"` // canonical form as routed
	IPAddress   string    `db:"ip_address"`
	UserAgent   string    `db:"user_agent"`
	Success     bool      `db:"success"`
	AttemptTime time.Time `db:"attempt_time"`
}

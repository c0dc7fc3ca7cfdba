package models

import "time"

// CredentialIssuance records an administrative provisioning action. The
// plaintext secret is never stored; the row commits in the same transaction
// as the account's new password hash.
type CredentialIssuance struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	IssuedBy  string    `db:"issued_by"` // admin account id
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
}

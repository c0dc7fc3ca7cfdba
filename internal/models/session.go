package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed session token payload. Subject and role are
// fixed for the life of the session; display attributes may be rewritten by
// a claim refresh. Verification is signature + expiry only, with no
// server-side revocation list.
type SessionClaims struct {
	Role        string `json:"role"`
	IndexNumber string `json:"index_number,omitempty"` // students only
	Name        string `json:"name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	jwt.RegisteredClaims
}

package auth

import (
	"fmt"
	"time"

	"github.com/eyramk/campusgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionIssuer mints and refreshes signed session tokens. Sessions are
// stateless: validity is signature plus expiry, with no revocation list, so
// the only termination paths are natural expiry and client-side logout.
type SessionIssuer struct {
	secret string
	expiry time.Duration
}

// NewSessionIssuer creates a new SessionIssuer
func NewSessionIssuer(secret string, expiry time.Duration) *SessionIssuer {
	return &SessionIssuer{
		secret: secret,
		expiry: expiry,
	}
}

// ProfilePatch carries the display attributes a claim refresh may rewrite.
// Nil fields are left untouched. Subject, role and index number are not
// patchable for the life of the session.
type ProfilePatch struct {
	Name      *string
	AvatarRef *string
}

// Issue mints a session token for an authenticated account. Students carry
// their index number as a claim; staff and admins do not.
func (si *SessionIssuer) Issue(account *models.Account) (string, error) {
	now := time.Now()

	claims := &models.SessionClaims{
		Role: account.Role,
		Name: account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(si.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	if account.Role == models.RoleStudent {
		claims.IndexNumber = account.IndexNumber
	}
	if account.AvatarRef != nil {
		claims.AvatarRef = *account.AvatarRef
	}

	return si.sign(claims)
}

// Refresh re-signs a session with patched display claims. Only name and
// avatar change; subject, role, index number, issued-at and expiry carry
// over from the old session, so a patch can never escalate.
func (si *SessionIssuer) Refresh(old *models.SessionClaims, patch ProfilePatch) (string, error) {
	claims := &models.SessionClaims{
		Role:        old.Role,
		IndexNumber: old.IndexNumber,
		Name:        old.Name,
		AvatarRef:   old.AvatarRef,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   old.Subject,
			ID:        old.ID,
			ExpiresAt: old.ExpiresAt,
			IssuedAt:  old.IssuedAt,
			NotBefore: old.NotBefore,
		},
	}

	if patch.Name != nil {
		claims.Name = *patch.Name
	}
	if patch.AvatarRef != nil {
		claims.AvatarRef = *patch.AvatarRef
	}

	return si.sign(claims)
}

// Validate verifies a token's signature and expiry and returns its claims.
func (si *SessionIssuer) Validate(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(si.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("invalid token: missing subject or role")
	}

	return claims, nil
}

func (si *SessionIssuer) sign(claims *models.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(si.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost         = 12
	MinSecretLen       = 12
	MaxSecretLen       = 128
	GeneratedSecretLen = 14
)

// secretAlphabet is the pool generated secrets draw from. Ambiguous glyphs
// (0/O, 1/l/I) are excluded because secrets are delivered over email and
// typed by hand.
const secretAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%&*"

// dummyHash is a valid bcrypt hash of a random throwaway value. It is
// compared against when no account or no stored hash exists, so the
// "unknown account" and "wrong password" paths cost the same.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// SecretPolicyError holds strength policy violations for an explicit secret.
type SecretPolicyError struct {
	Violations []string
}

func (e *SecretPolicyError) Error() string {
	if len(e.Violations) == 0 {
		return "secret does not meet strength policy"
	}
	return "secret does not meet strength policy: " + e.Violations[0]
}

func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

func CompareSecret(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}

// DummyCompare burns the same bcrypt work as a real comparison and always
// fails. Called on lookup misses to keep response timing uniform.
func DummyCompare(secret string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(secret))
}

// GenerateSecret produces a random secret for first-time provisioning.
func GenerateSecret() (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	out := make([]byte, GeneratedSecretLen)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret: %w", err)
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out), nil
}

// ValidateSecret enforces the strength policy for admin-supplied secrets.
func ValidateSecret(secret string) error {
	violations := make([]string, 0)

	if len(secret) < MinSecretLen {
		violations = append(violations, fmt.Sprintf("must be at least %d characters", MinSecretLen))
	}
	if len(secret) > MaxSecretLen {
		violations = append(violations, fmt.Sprintf("must be at most %d characters", MaxSecretLen))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false

	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		violations = append(violations, "must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain at least one digit")
	}

	if len(violations) > 0 {
		return &SecretPolicyError{Violations: violations}
	}

	return nil
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
)

// AccountStore is the account lookup surface the verifier needs. The two
// Get methods each search only their own identifier namespace.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByIndexNumber(ctx context.Context, indexNumber string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id, name string, avatarRef *string) (*models.Account, error)
}

// AttemptRecorder is the write side of the attempt ledger plus the
// per-identifier critical section.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	WithIdentifierLock(ctx context.Context, identifier string, fn func(ctx context.Context) error) error
}

// LockoutChecker evaluates whether an identifier is currently blocked.
type LockoutChecker interface {
	Check(ctx context.Context, identifier string) (LockoutDecision, error)
}

// TimingWaiter pads failure responses to a uniform duration.
type TimingWaiter interface {
	WaitFrom(startTime time.Time, success bool)
}

// AuthService is the credential verifier: it routes identifiers to their
// namespace, gates on lockout state, checks secrets against the store and
// ledgers every attempt.
type AuthService struct {
	accounts     AccountStore
	attempts     AttemptRecorder
	lockout      LockoutChecker
	issuer       *auth.SessionIssuer
	timing       TimingWaiter
	queryTimeout time.Duration
	logger       *slog.Logger
	audit        *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accounts AccountStore,
	attempts AttemptRecorder,
	lockout LockoutChecker,
	issuer *auth.SessionIssuer,
	timing TimingWaiter,
	queryTimeout time.Duration,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		accounts:     accounts,
		attempts:     attempts,
		lockout:      lockout,
		issuer:       issuer,
		timing:       timing,
		queryTimeout: queryTimeout,
		logger:       logger,
		audit:        audit,
	}
}

// AccountResponse is the identity payload returned alongside a session token.
type AccountResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Email       string  `json:"email,omitempty"`
	IndexNumber string  `json:"index_number,omitempty"`
	AvatarRef   *string `json:"avatar_ref,omitempty"`
}

// LoginResponse is the result of a successful authentication.
type LoginResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// Authenticate verifies a submitted identifier and secret. Outcomes are
// typed results, never panics: ErrInvalidCredentials for a bad identifier,
// unknown account or wrong secret; LockedError while the identifier is
// cooling down; ErrUnavailable when the ledger or store cannot be
// consulted, which always denies.
func (s *AuthService) Authenticate(ctx context.Context, rawIdentifier, secret, ipAddress, userAgent string) (*LoginResponse, error) {
	start := time.Now()
	if ipAddress == "" {
		ipAddress = "unknown"
	}

	if rawIdentifier == "" || secret == "" {
		s.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidCredentials
	}

	identifier, ok := models.ParseIdentifier(rawIdentifier)
	if !ok {
		// Fits neither namespace, so no account can match. Burn the same
		// hash work anyway and ledger the attempt under the raw string.
		pkgauth.DummyCompare(secret)
		s.recordAttempt(ctx, rawIdentifier, ipAddress, userAgent, false)
		s.auditFailure("", rawIdentifier, ipAddress, userAgent, "malformed_identifier")
		s.timing.WaitFrom(start, false)
		return nil, models.ErrInvalidCredentials
	}

	var account *models.Account

	// Auth outcomes land in authErr instead of the callback's return value:
	// ledger appends ride the lock transaction, so returning an error for a
	// wrong secret would roll back the failure row just written. The callback
	// errors only when infrastructure fails and there is nothing to commit.
	var authErr error

	// Once entered, the locked section runs to completion even if the client
	// hangs up mid-request; otherwise an attacker could keep attempts off
	// the ledger by cancelling early.
	lockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.queryTimeout)
	defer cancel()

	err := s.attempts.WithIdentifierLock(lockCtx, identifier.Value, func(ctx context.Context) error {
		decision, err := s.lockout.Check(ctx, identifier.Value)
		if err != nil {
			return models.ErrUnavailable
		}
		if decision.Blocked {
			// Read-only rejection: the secret store is never consulted for
			// a blocked identifier, and no ledger row is appended, so
			// polling a locked account cannot extend its own cooldown.
			s.auditFailure("", identifier.Value, ipAddress, userAgent, "locked")
			authErr = &models.LockedError{RetryAfter: decision.RetryAfter}
			return nil
		}

		resolved, err := s.resolveAccount(ctx, identifier)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				pkgauth.DummyCompare(secret)
				if recErr := s.recordAttempt(ctx, identifier.Value, ipAddress, userAgent, false); recErr != nil {
					return models.ErrUnavailable
				}
				s.auditFailure("", identifier.Value, ipAddress, userAgent, "unknown_account")
				authErr = models.ErrInvalidCredentials
				return nil
			}
			return models.ErrUnavailable
		}

		if !resolved.Provisioned() {
			pkgauth.DummyCompare(secret)
			if recErr := s.recordAttempt(ctx, identifier.Value, ipAddress, userAgent, false); recErr != nil {
				return models.ErrUnavailable
			}
			s.auditFailure(resolved.ID, identifier.Value, ipAddress, userAgent, "unprovisioned_account")
			authErr = models.ErrInvalidCredentials
			return nil
		}

		matched := pkgauth.CompareSecret(resolved.PasswordHash, secret) == nil

		if recErr := s.recordAttempt(ctx, identifier.Value, ipAddress, userAgent, matched); recErr != nil {
			// A success that cannot be ledgered is denied rather than
			// granted: the ledger is the source of lockout truth.
			return models.ErrUnavailable
		}

		if !matched {
			s.auditFailure(resolved.ID, identifier.Value, ipAddress, userAgent, "invalid_credentials")
			authErr = models.ErrInvalidCredentials
			return nil
		}

		account = resolved
		return nil
	})
	if err != nil {
		err = s.mapAuthError(err)
		s.timing.WaitFrom(start, false)
		return nil, err
	}
	if authErr != nil {
		s.timing.WaitFrom(start, false)
		return nil, authErr
	}

	token, err := s.issuer.Issue(account)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:  "login_success",
		AccountID:  account.ID,
		Identifier: identifier.Value,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Success:    true,
	})

	return &LoginResponse{
		Token:   token,
		Account: accountToResponse(account),
	}, nil
}

// RefreshClaims persists a display-attribute change and re-signs the
// session with the updated claims. Subject, role and expiry are immutable
// here; only name and avatar move.
func (s *AuthService) RefreshClaims(ctx context.Context, claims *models.SessionClaims, patch auth.ProfilePatch) (*LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load account for claim refresh", slog.String("account_id", claims.Subject), slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	name := account.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	avatarRef := account.AvatarRef
	if patch.AvatarRef != nil {
		avatarRef = patch.AvatarRef
	}

	updated, err := s.accounts.UpdateProfile(ctx, account.ID, name, avatarRef)
	if err != nil {
		s.logger.Error("failed to update profile", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	token, err := s.issuer.Refresh(claims, patch)
	if err != nil {
		s.logger.Error("failed to re-sign session", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAccountAction("session_claims_refreshed", account.ID, "", nil)

	return &LoginResponse{
		Token:   token,
		Account: accountToResponse(updated),
	}, nil
}

// resolveAccount looks up the account in the namespace the identifier
// parsed into. A staff email can never resolve a student account and vice
// versa.
func (s *AuthService) resolveAccount(ctx context.Context, identifier models.Identifier) (*models.Account, error) {
	if identifier.IsIndexNumber() {
		return s.accounts.GetByIndexNumber(ctx, identifier.Value)
	}
	return s.accounts.GetByEmail(ctx, identifier.Value)
}

func (s *AuthService) recordAttempt(ctx context.Context, identifier, ipAddress, userAgent string, success bool) error {
	// The append must land even when the caller hangs up mid-request;
	// otherwise an attacker could keep attempts off the ledger by
	// cancelling early.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.queryTimeout)
	defer cancel()

	err := s.attempts.RecordAttempt(ctx, &models.LoginAttempt{
		Identifier:  identifier,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Success:     success,
		AttemptTime: time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to append login attempt", slog.Any("error", err))
	}
	return err
}

func (s *AuthService) auditFailure(accountID, identifier, ipAddress, userAgent, reason string) {
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		AccountID:     accountID,
		Identifier:    identifier,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Success:       false,
		FailureReason: reason,
	})
}

// mapAuthError keeps typed authentication outcomes and converts everything
// else (timeouts, connection failures) to ErrUnavailable.
func (s *AuthService) mapAuthError(err error) error {
	if errors.Is(err, models.ErrInvalidCredentials) || errors.Is(err, models.ErrUnavailable) {
		return err
	}
	if _, locked := models.IsLocked(err); locked {
		return err
	}
	s.logger.Error("authentication infrastructure failure", slog.Any("error", err))
	return models.ErrUnavailable
}

func accountToResponse(account *models.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Role:      account.Role,
		AvatarRef: account.AvatarRef,
	}
	if account.Role == models.RoleStudent {
		resp.IndexNumber = account.IndexNumber
	} else {
		resp.Email = account.Email
	}
	return resp
}

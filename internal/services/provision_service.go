package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eyramk/campusgate/internal/models"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
)

// ProvisionStore is the account surface the provisioner needs. The hash
// write and the issuance record commit atomically or not at all.
type ProvisionStore interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	ProvisionSecret(ctx context.Context, accountID, passwordHash, issuedBy, notes string) (*models.CredentialIssuance, error)
}

// ProvisionService issues first-time login credentials for pre-created
// accounts. One issuance per account for its lifetime.
type ProvisionService struct {
	accounts     ProvisionStore
	mailer       CredentialMailer
	queryTimeout time.Duration
	logger       *slog.Logger
	audit        *pkglogger.AuditLogger
}

// NewProvisionService creates a new ProvisionService
func NewProvisionService(
	accounts ProvisionStore,
	mailer CredentialMailer,
	queryTimeout time.Duration,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *ProvisionService {
	return &ProvisionService{
		accounts:     accounts,
		mailer:       mailer,
		queryTimeout: queryTimeout,
		logger:       logger,
		audit:        audit,
	}
}

// ProvisionResult is returned to the provisioning admin. Secret is the only
// plaintext copy that will ever exist on the server side.
type ProvisionResult struct {
	Secret            string `json:"secret"`
	AccountIdentifier string `json:"account_identifier"`
	RecipientEmail    string `json:"recipient_email,omitempty"`
}

// Provision generates or accepts an initial secret for an unprovisioned
// account, stores its hash together with an issuance record, and returns the
// plaintext exactly once. Re-provisioning an account is refused, even by an
// admin; recovery is a separate reset flow.
func (s *ProvisionService) Provision(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*ProvisionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	account, err := s.accounts.GetByID(ctx, targetAccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.LogProvisioning(actorID, targetAccountID, false, "account_not_found")
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load account for provisioning", slog.String("account_id", targetAccountID), slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	if account.Provisioned() {
		s.audit.LogProvisioning(actorID, targetAccountID, false, "already_provisioned")
		return nil, models.ErrAlreadyProvisioned
	}

	secret := explicitSecret
	if secret != "" {
		if err := pkgauth.ValidateSecret(secret); err != nil {
			s.audit.LogProvisioning(actorID, targetAccountID, false, "weak_secret")
			return nil, models.ErrWeakSecret
		}
	} else {
		secret, err = pkgauth.GenerateSecret()
		if err != nil {
			s.logger.Error("failed to generate secret", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		s.logger.Error("failed to hash secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	notes := "generated"
	if explicitSecret != "" {
		notes = "admin_supplied"
	}

	if _, err := s.accounts.ProvisionSecret(ctx, account.ID, hash, actorID, notes); err != nil {
		if errors.Is(err, models.ErrAlreadyProvisioned) {
			// Lost a race with a concurrent provisioning of the same account.
			s.audit.LogProvisioning(actorID, targetAccountID, false, "already_provisioned")
			return nil, models.ErrAlreadyProvisioned
		}
		if errors.Is(err, models.ErrNotFound) {
			s.audit.LogProvisioning(actorID, targetAccountID, false, "account_not_found")
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to store provisioned secret", slog.String("account_id", targetAccountID), slog.Any("error", err))
		return nil, models.ErrUnavailable
	}

	s.audit.LogProvisioning(actorID, targetAccountID, true, "")

	result := &ProvisionResult{
		Secret:            secret,
		AccountIdentifier: account.LoginIdentifier(),
	}

	if account.Email != "" {
		result.RecipientEmail = account.Email
		if s.mailer != nil {
			if err := s.mailer.SendCredentialEmail(ctx, account.Email, account.LoginIdentifier(), secret); err != nil {
				// The issuance already committed and the admin has the
				// plaintext, so a mail failure only gets logged.
				s.logger.Warn("credential email delivery failed", slog.String("account_id", account.ID))
			}
		}
	}

	return result, nil
}

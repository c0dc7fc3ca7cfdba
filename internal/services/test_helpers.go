package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/eyramk/campusgate/internal/models"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
)

// MockAccountStore implements AccountStore and ProvisionStore for testing
type MockAccountStore struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*models.Account, error)
	GetByIndexNumberFunc func(ctx context.Context, indexNumber string) (*models.Account, error)
	UpdateProfileFunc    func(ctx context.Context, id, name string, avatarRef *string) (*models.Account, error)
	ProvisionSecretFunc  func(ctx context.Context, accountID, passwordHash, issuedBy, notes string) (*models.CredentialIssuance, error)
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) GetByIndexNumber(ctx context.Context, indexNumber string) (*models.Account, error) {
	if m.GetByIndexNumberFunc != nil {
		return m.GetByIndexNumberFunc(ctx, indexNumber)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) UpdateProfile(ctx context.Context, id, name string, avatarRef *string) (*models.Account, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, avatarRef)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountStore) ProvisionSecret(ctx context.Context, accountID, passwordHash, issuedBy, notes string) (*models.CredentialIssuance, error) {
	if m.ProvisionSecretFunc != nil {
		return m.ProvisionSecretFunc(ctx, accountID, passwordHash, issuedBy, notes)
	}
	return nil, models.ErrInternalServer
}

// MockAttemptLedger implements AttemptLedger and AttemptRecorder for
// testing. By default the lock section just runs the callback, and recorded
// attempts accumulate in Recorded newest first.
type MockAttemptLedger struct {
	RecordAttemptFunc      func(ctx context.Context, attempt *models.LoginAttempt) error
	RecentByIdentifierFunc func(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error)
	WithIdentifierLockFunc func(ctx context.Context, identifier string, fn func(ctx context.Context) error) error

	Recorded []*models.LoginAttempt
}

func (m *MockAttemptLedger) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, attempt)
	}
	m.Recorded = append([]*models.LoginAttempt{attempt}, m.Recorded...)
	return nil
}

func (m *MockAttemptLedger) RecentByIdentifier(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error) {
	if m.RecentByIdentifierFunc != nil {
		return m.RecentByIdentifierFunc(ctx, identifier, limit)
	}
	if limit > len(m.Recorded) {
		limit = len(m.Recorded)
	}
	return m.Recorded[:limit], nil
}

func (m *MockAttemptLedger) WithIdentifierLock(ctx context.Context, identifier string, fn func(ctx context.Context) error) error {
	if m.WithIdentifierLockFunc != nil {
		return m.WithIdentifierLockFunc(ctx, identifier, fn)
	}
	return fn(ctx)
}

// MockLockoutChecker implements LockoutChecker for testing
type MockLockoutChecker struct {
	CheckFunc func(ctx context.Context, identifier string) (LockoutDecision, error)
}

func (m *MockLockoutChecker) Check(ctx context.Context, identifier string) (LockoutDecision, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, identifier)
	}
	return LockoutDecision{}, nil
}

// MockCredentialMailer implements CredentialMailer for testing
type MockCredentialMailer struct {
	SendCredentialEmailFunc func(ctx context.Context, recipientEmail, accountIdentifier, secret string) error

	SentTo         []string
	SentSecrets    []string
	SentIdentities []string
}

func (m *MockCredentialMailer) SendCredentialEmail(ctx context.Context, recipientEmail, accountIdentifier, secret string) error {
	if m.SendCredentialEmailFunc != nil {
		return m.SendCredentialEmailFunc(ctx, recipientEmail, accountIdentifier, secret)
	}
	m.SentTo = append(m.SentTo, recipientEmail)
	m.SentIdentities = append(m.SentIdentities, accountIdentifier)
	m.SentSecrets = append(m.SentSecrets, secret)
	return nil
}

// noopTiming skips the failure padding so tests run fast.
type noopTiming struct{}

func (noopTiming) WaitFrom(startTime time.Time, success bool) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

func mustHash(secret string) string {
	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		panic(err)
	}
	return hash
}

func strPtr(s string) *string {
	return &s
}

func testStudentAccount(secret string) *models.Account {
	return &models.Account{
		ID:           "acc-student-1",
		IndexNumber:  "CS/ITC/21/0001",
		Email:        "kwame.mensah@students.example.edu",
		PasswordHash: mustHash(secret),
		Name:         "Kwame Mensah",
		Role:         models.RoleStudent,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func testLecturerAccount(secret string) *models.Account {
	return &models.Account{
		ID:           "acc-lecturer-1",
		Email:        "a.owusu@example.edu",
		PasswordHash: mustHash(secret),
		Name:         "Dr. Akosua Owusu",
		Role:         models.RoleLecturer,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

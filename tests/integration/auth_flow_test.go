package integration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/repositories"
	"github.com/eyramk/campusgate/internal/services"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
)

const (
	testSessionSecret = "integration-session-secret-0123456789"
	studentSecret     = "Correct-Horse-42"
)

func setupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Teardown(context.Background()); err != nil {
			t.Logf("teardown: %v", err)
		}
	})
	return db
}

func newAuthService(db *TestDB) *services.AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accountRepo := repositories.NewAccountRepository(db.DB)
	attemptRepo := repositories.NewLoginAttemptRepository(db.DB)

	lockout := services.NewLockoutService(attemptRepo, services.LockoutPolicy{
		FailureThreshold: 5,
		BaseCooldown:     5 * time.Minute,
		MaxCooldown:      24 * time.Hour,
	}, 50, logger)

	issuer := auth.NewSessionIssuer(testSessionSecret, 7*24*time.Hour)
	timing := auth.NewTimingDelay(auth.TimingConfig{})

	return services.NewAuthService(
		accountRepo,
		attemptRepo,
		lockout,
		issuer,
		timing,
		5*time.Second,
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}

func TestAuthenticate_SuccessAppendsLedgerRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student, err := SeedStudent(ctx, db.Pool, "CS/ITC/21/0001", "ama.serwaa@students.example.edu", studentSecret)
	require.NoError(t, err)

	svc := newAuthService(db)

	resp, err := svc.Authenticate(ctx, "cs/itc/21/0001", studentSecret, "10.0.0.1", "integration-test")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, student.ID, resp.Account.ID)

	count, err := CountAttempts(ctx, db.Pool, "CS/ITC/21/0001")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthenticate_ConcurrentAttemptsAtThresholdSerialize(t *testing.T) {
	// Two wrong-password logins arriving at the fifth failure must not both
	// slip past the lockout check. The advisory lock serializes them: one
	// appends the threshold failure, the other observes it and is refused
	// without touching the ledger.
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := SeedStudent(ctx, db.Pool, "CS/ITC/21/0001", "ama.serwaa@students.example.edu", studentSecret)
	require.NoError(t, err)
	require.NoError(t, SeedFailedAttempts(ctx, db.Pool, "CS/ITC/21/0001", 4, time.Now()))

	svc := newAuthService(db)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Authenticate(ctx, "CS/ITC/21/0001", "wrong-secret-42", "10.0.0.1", "integration-test")
		}(i)
	}
	wg.Wait()

	var invalid, locked int
	for _, err := range errs {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			invalid++
		default:
			if _, ok := models.IsLocked(err); ok {
				locked++
			}
		}
	}
	assert.Equal(t, 1, invalid, "exactly one attempt reaches the secret check: %v", errs)
	assert.Equal(t, 1, locked, "the other attempt must observe the lockout: %v", errs)

	// 4 seeded failures plus the single appended one; the locked attempt
	// leaves no row.
	count, err := CountAttempts(ctx, db.Pool, "CS/ITC/21/0001")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestProvision_ConcurrentRequestsIssueOnce(t *testing.T) {
	// Two admins provisioning the same account concurrently: the
	// password_hash IS NULL guard lets exactly one hash through and exactly
	// one issuance record commit.
	db := setupTestDB(t)
	ctx := context.Background()

	admin, err := SeedAdmin(ctx, db.Pool, "registry@example.edu", "Admin-Secret-99")
	require.NoError(t, err)
	student, err := SeedStudent(ctx, db.Pool, "CS/ITC/21/0002", "kofi.asante@students.example.edu", "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accountRepo := repositories.NewAccountRepository(db.DB)
	svc := services.NewProvisionService(accountRepo, nil, 5*time.Second, logger, pkglogger.NewAuditLogger(logger))

	results := make([]*services.ProvisionResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Provision(ctx, student.ID, "", admin.ID)
		}(i)
	}
	wg.Wait()

	var winner *services.ProvisionResult
	var won, refused int
	for i := range errs {
		switch {
		case errs[i] == nil:
			won++
			winner = results[i]
		case errors.Is(errs[i], models.ErrAlreadyProvisioned):
			refused++
		default:
			t.Fatalf("unexpected provisioning error: %v", errs[i])
		}
	}
	require.Equal(t, 1, won, "exactly one provisioning must win")
	assert.Equal(t, 1, refused, "the loser must be refused, not retried")

	count, err := CountIssuances(ctx, db.Pool, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The stored hash belongs to the winning secret.
	var storedHash string
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE id = $1`, student.ID).Scan(&storedHash))
	assert.NoError(t, pkgauth.CompareSecret(storedHash, winner.Secret))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/eyramk/campusgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() LockoutPolicy {
	return LockoutPolicy{
		FailureThreshold: 5,
		BaseCooldown:     5 * time.Minute,
		MaxCooldown:      24 * time.Hour,
	}
}

// failures builds n failed attempts newest first, the most recent at `last`
// and one second between consecutive attempts.
func failures(n int, last time.Time) []*models.LoginAttempt {
	attempts := make([]*models.LoginAttempt, n)
	for i := 0; i < n; i++ {
		attempts[i] = &models.LoginAttempt{
			Identifier:  "CS/ITC/21/0001",
			Success:     false,
			AttemptTime: last.Add(-time.Duration(i) * time.Second),
		}
	}
	return attempts
}

func TestLockoutPolicy_BelowThresholdNotBlocked(t *testing.T) {
	now := time.Now()
	decision := testPolicy().Evaluate(failures(4, now), now)

	assert.False(t, decision.Blocked)
	assert.Zero(t, decision.RetryAfter)
}

func TestLockoutPolicy_ThresholdTriggersBlock(t *testing.T) {
	now := time.Now()
	decision := testPolicy().Evaluate(failures(5, now), now)

	require.True(t, decision.Blocked)
	assert.InDelta(t, (5 * time.Minute).Seconds(), decision.RetryAfter.Seconds(), 1)
}

func TestLockoutPolicy_RetryAfterCountsDown(t *testing.T) {
	now := time.Now()
	lastFailure := now.Add(-2 * time.Minute)
	decision := testPolicy().Evaluate(failures(5, lastFailure), now)

	require.True(t, decision.Blocked)
	assert.InDelta(t, (3 * time.Minute).Seconds(), decision.RetryAfter.Seconds(), 1)
}

func TestLockoutPolicy_CooldownExpiryUnblocks(t *testing.T) {
	now := time.Now()
	lastFailure := now.Add(-5*time.Minute - time.Second)
	decision := testPolicy().Evaluate(failures(5, lastFailure), now)

	assert.False(t, decision.Blocked)
}

func TestLockoutPolicy_CooldownDoublesPerBlock(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		failures int
		cooldown time.Duration
	}{
		{"first block", 5, 5 * time.Minute},
		{"partial second block keeps first cooldown", 9, 5 * time.Minute},
		{"second block doubles", 10, 10 * time.Minute},
		{"third block doubles again", 15, 20 * time.Minute},
		{"fourth block", 20, 40 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := testPolicy().Evaluate(failures(tt.failures, now), now)
			require.True(t, decision.Blocked)
			assert.InDelta(t, tt.cooldown.Seconds(), decision.RetryAfter.Seconds(), 1)
		})
	}
}

func TestLockoutPolicy_CooldownCapped(t *testing.T) {
	policy := LockoutPolicy{
		FailureThreshold: 5,
		BaseCooldown:     5 * time.Minute,
		MaxCooldown:      15 * time.Minute,
	}

	now := time.Now()
	decision := policy.Evaluate(failures(100, now), now)

	require.True(t, decision.Blocked)
	assert.InDelta(t, (15 * time.Minute).Seconds(), decision.RetryAfter.Seconds(), 1)
}

func TestLockoutPolicy_SuccessResetsCount(t *testing.T) {
	now := time.Now()

	// Four fresh failures on top of an old success that itself follows a
	// long failure streak. Only the four count.
	attempts := failures(4, now)
	attempts = append(attempts, &models.LoginAttempt{
		Identifier:  "CS/ITC/21/0001",
		Success:     true,
		AttemptTime: now.Add(-time.Minute),
	})
	attempts = append(attempts, failures(20, now.Add(-2*time.Minute))...)

	decision := testPolicy().Evaluate(attempts, now)

	assert.False(t, decision.Blocked)
}

func TestLockoutPolicy_EmptyLedgerNotBlocked(t *testing.T) {
	now := time.Now()
	decision := testPolicy().Evaluate(nil, now)

	assert.False(t, decision.Blocked)
}

func TestLockoutService_Check(t *testing.T) {
	now := time.Now()
	ledger := &MockAttemptLedger{
		RecentByIdentifierFunc: func(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error) {
			assert.Equal(t, "CS/ITC/21/0001", identifier)
			assert.Equal(t, 50, limit)
			return failures(5, now), nil
		},
	}

	svc := NewLockoutService(ledger, testPolicy(), 50, testLogger())

	decision, err := svc.Check(context.Background(), "CS/ITC/21/0001")
	require.NoError(t, err)
	assert.True(t, decision.Blocked)
}

func TestLockoutService_LedgerErrorPropagates(t *testing.T) {
	ledger := &MockAttemptLedger{
		RecentByIdentifierFunc: func(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error) {
			return nil, models.ErrInternalServer
		},
	}

	svc := NewLockoutService(ledger, testPolicy(), 50, testLogger())

	_, err := svc.Check(context.Background(), "CS/ITC/21/0001")
	require.Error(t, err)
}

func TestLockoutService_WindowFloorsAtThreshold(t *testing.T) {
	var gotLimit int
	ledger := &MockAttemptLedger{
		RecentByIdentifierFunc: func(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	svc := NewLockoutService(ledger, testPolicy(), 2, testLogger())

	_, err := svc.Check(context.Background(), "CS/ITC/21/0001")
	require.NoError(t, err)
	assert.Equal(t, 5, gotLimit)
}

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/eyramk/campusgate/internal/models"
)

// LockoutPolicy maps a trailing window of ledger attempts to an allow/deny
// decision. It is pure: given the same snapshot and clock it always decides
// the same way, and no lock flag is cached anywhere.
type LockoutPolicy struct {
	FailureThreshold int           // consecutive failures before the first block
	BaseCooldown     time.Duration // cooldown for the first block
	MaxCooldown      time.Duration // cap on the escalated cooldown
}

// LockoutDecision is the outcome of a lockout check.
type LockoutDecision struct {
	Blocked    bool
	RetryAfter time.Duration
}

// Evaluate decides whether an identifier is currently blocked. attempts
// must be ordered newest first. The consecutive-failure count runs from the
// most recent success (a single success resets it, regardless of any
// cooldown that was in force). The cooldown doubles for every additional
// full block of threshold failures, capped at MaxCooldown.
func (p LockoutPolicy) Evaluate(attempts []*models.LoginAttempt, now time.Time) LockoutDecision {
	consecutive := 0
	var lastFailure time.Time

	for _, attempt := range attempts {
		if attempt.Success {
			break
		}
		if consecutive == 0 {
			lastFailure = attempt.AttemptTime
		}
		consecutive++
	}

	if consecutive < p.FailureThreshold {
		return LockoutDecision{}
	}

	cooldown := p.cooldownFor(consecutive)
	until := lastFailure.Add(cooldown)
	if now.Before(until) {
		return LockoutDecision{Blocked: true, RetryAfter: until.Sub(now)}
	}

	return LockoutDecision{}
}

func (p LockoutPolicy) cooldownFor(consecutiveFailures int) time.Duration {
	cycles := consecutiveFailures / p.FailureThreshold

	cooldown := p.BaseCooldown
	for i := 1; i < cycles; i++ {
		cooldown *= 2
		if cooldown >= p.MaxCooldown {
			return p.MaxCooldown
		}
	}

	if cooldown > p.MaxCooldown {
		return p.MaxCooldown
	}
	return cooldown
}

// AttemptLedger is the read side of the attempt ledger.
type AttemptLedger interface {
	RecentByIdentifier(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error)
}

// LockoutService derives lockout state from the attempt ledger on every
// check. Attempts from all origins count against the same identifier; the
// attacker model is "identifier under attack", not "origin under attack".
type LockoutService struct {
	ledger AttemptLedger
	policy LockoutPolicy
	window int
	logger *slog.Logger
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(ledger AttemptLedger, policy LockoutPolicy, window int, logger *slog.Logger) *LockoutService {
	if window < policy.FailureThreshold {
		window = policy.FailureThreshold
	}
	return &LockoutService{
		ledger: ledger,
		policy: policy,
		window: window,
		logger: logger,
	}
}

// Check evaluates the lockout policy for an identifier. A ledger read
// failure propagates as an error so the caller denies authentication; it is
// never interpreted as "no prior failures".
func (s *LockoutService) Check(ctx context.Context, identifier string) (LockoutDecision, error) {
	attempts, err := s.ledger.RecentByIdentifier(ctx, identifier, s.window)
	if err != nil {
		s.logger.Error("failed to read attempt ledger for lockout check", slog.Any("error", err))
		return LockoutDecision{}, err
	}

	return s.policy.Evaluate(attempts, time.Now()), nil
}

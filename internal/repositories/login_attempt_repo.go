package repositories

import (
	"context"
	"fmt"

	"github.com/eyramk/campusgate/internal/database"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoginAttemptRepository is the append-only attempt ledger.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt appends an attempt row. Rows are never updated or deleted;
// retention is handled outside this service.
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}

	query := `
		INSERT INTO login_attempts (id, identifier, ip_address, user_agent, success, attempt_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := querier(ctx, r.db).Exec(ctx, query,
		attempt.ID,
		attempt.Identifier,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Success,
		attempt.AttemptTime,
	)

	return err
}

// RecentByIdentifier returns the trailing attempts for an identifier, newest
// first, across all origins. Lockout state is derived from this snapshot on
// every check.
func (r *LoginAttemptRepository) RecentByIdentifier(ctx context.Context, identifier string, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, identifier, ip_address, user_agent, success, attempt_time
		FROM login_attempts
		WHERE identifier = $1
		ORDER BY attempt_time DESC
		LIMIT $2
	`

	rows, err := querier(ctx, r.db).Query(ctx, query, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)
	for rows.Next() {
		var attempt models.LoginAttempt
		if err := rows.Scan(
			&attempt.ID, &attempt.Identifier, &attempt.IPAddress,
			&attempt.UserAgent, &attempt.Success, &attempt.AttemptTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login attempts: %w", err)
	}

	return attempts, nil
}

// WithIdentifierLock runs fn while holding a per-identifier advisory lock.
// Two requests racing at the lockout threshold serialize here: the second
// blocks until the first has appended its attempt and committed, so both
// cannot observe "not locked" and slip through together.
//
// fn receives a context carrying the lock transaction, and every repository
// call made with it runs on that same connection. The whole locked section
// therefore costs one pool connection per login; without this, concurrent
// logins each hold a connection while waiting for a second one and the pool
// starves at DB_MAX_CONNS in-flight requests.
func (r *LoginAttemptRepository) WithIdentifierLock(ctx context.Context, identifier string, fn func(ctx context.Context) error) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, identifier); err != nil {
			return fmt.Errorf("failed to acquire identifier lock: %w", err)
		}
		return fn(withTx(ctx, tx))
	})
}

package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eyramk/campusgate/internal/database"
	"github.com/eyramk/campusgate/internal/models"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("campusgate"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &database.DB{Pool: pool}

	// Migrations are embedded in the database package, so the same goose
	// files the server applies on startup build the test schema.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := db.RunMigrations(quiet); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         db,
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"credential_issuances",
		"login_attempts",
		"accounts",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedStudent inserts a student account. An empty secret leaves the account
// unprovisioned (NULL password hash).
func SeedStudent(ctx context.Context, pool *pgxpool.Pool, indexNumber, email, secret string) (*models.Account, error) {
	account := &models.Account{
		ID:          uuid.New().String(),
		IndexNumber: indexNumber,
		Email:       email,
		Name:        "Ama Serwaa",
		Role:        models.RoleStudent,
	}

	var hash *string
	if secret != "" {
		h, err := pkgauth.HashSecret(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to hash secret: %w", err)
		}
		hash = &h
		account.PasswordHash = h
	}

	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}

	query := `
		INSERT INTO accounts (id, index_number, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := pool.Exec(ctx, query, account.ID, indexNumber, emailPtr, hash, account.Name, account.Role); err != nil {
		return nil, fmt.Errorf("failed to insert student account: %w", err)
	}

	return account, nil
}

// SeedAdmin inserts a provisioned admin account.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, email, secret string) (*models.Account, error) {
	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Registry Admin",
		Role:         models.RoleAdmin,
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := pool.Exec(ctx, query, account.ID, email, hash, account.Name, account.Role); err != nil {
		return nil, fmt.Errorf("failed to insert admin account: %w", err)
	}

	return account, nil
}

// SeedFailedAttempts appends n failed ledger rows for an identifier, the
// newest one stamped at now.
func SeedFailedAttempts(ctx context.Context, pool *pgxpool.Pool, identifier string, n int, now time.Time) error {
	query := `
		INSERT INTO login_attempts (id, identifier, ip_address, user_agent, success, attempt_time)
		VALUES ($1, $2, $3, $4, false, $5)
	`
	for i := 0; i < n; i++ {
		attemptTime := now.Add(-time.Duration(i) * time.Second)
		if _, err := pool.Exec(ctx, query, uuid.New().String(), identifier, "203.0.113.7", "integration-test", attemptTime); err != nil {
			return fmt.Errorf("failed to insert login attempt: %w", err)
		}
	}
	return nil
}

// CountAttempts returns the number of ledger rows for an identifier.
func CountAttempts(ctx context.Context, pool *pgxpool.Pool, identifier string) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_attempts WHERE identifier = $1`, identifier).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return count, nil
}

// CountIssuances returns the number of issuance records for an account.
func CountIssuances(ctx context.Context, pool *pgxpool.Pool, accountID string) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM credential_issuances WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count credential issuances: %w", err)
	}
	return count, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/eyramk/campusgate/internal/database"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, index_number, password_hash, name, avatar_ref, role, created_at, updated_at`

// rowScanner interface for scanning account rows (single row or rows iteration)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow handles nullable fields and populates an Account model
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var email, indexNumber, passwordHash *string

	err := scanner.Scan(
		&account.ID, &email, &indexNumber, &passwordHash,
		&account.Name, &account.AvatarRef, &account.Role,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if email != nil {
		account.Email = *email
	}
	if indexNumber != nil {
		account.IndexNumber = *indexNumber
	}
	if passwordHash != nil {
		account.PasswordHash = *passwordHash
	}

	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(querier(ctx, r.db).QueryRow(ctx, query, id))
}

// GetByEmail resolves a staff or admin account. Student accounts never match
// here; the two identifier namespaces are a hard partition.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 AND role <> $2`
	return scanAccountRow(querier(ctx, r.db).QueryRow(ctx, query, email, models.RoleStudent))
}

// GetByIndexNumber resolves a student account by canonical index number.
func (r *AccountRepository) GetByIndexNumber(ctx context.Context, indexNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE index_number = $1 AND role = $2`
	return scanAccountRow(querier(ctx, r.db).QueryRow(ctx, query, indexNumber, models.RoleStudent))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, index_number, password_hash, name, avatar_ref, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + accountColumns

	var email, indexNumber, passwordHash *string
	if account.Email != "" {
		email = &account.Email
	}
	if account.IndexNumber != "" {
		indexNumber = &account.IndexNumber
	}
	if account.PasswordHash != "" {
		passwordHash = &account.PasswordHash
	}

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		account.ID, email, indexNumber, passwordHash,
		account.Name, account.AvatarRef, account.Role,
		account.CreatedAt, account.UpdatedAt,
	))
}

// UpdateProfile rewrites the display attributes that feed session claims.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id, name string, avatarRef *string) (*models.Account, error) {
	query := `
		UPDATE accounts SET name = $1, avatar_ref = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, name, avatarRef, time.Now(), id))
}

// ProvisionSecret assigns first-time credentials: the password hash and the
// issuance record commit in one transaction, so a half-applied state is
// never observable. Fails with ErrAlreadyProvisioned when a hash exists.
func (r *AccountRepository) ProvisionSecret(ctx context.Context, accountID, passwordHash, issuedBy, notes string) (*models.CredentialIssuance, error) {
	issuance := &models.CredentialIssuance{
		ID:        uuid.New().String(),
		AccountID: accountID,
		IssuedBy:  issuedBy,
		Notes:     notes,
		CreatedAt: time.Now(),
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts SET password_hash = $1, updated_at = $2
			WHERE id = $3 AND password_hash IS NULL
		`, passwordHash, issuance.CreatedAt, accountID)
		if err != nil {
			return database.MapPostgresError(err)
		}

		if tag.RowsAffected() == 0 {
			// Distinguish a missing account from one that already has
			// credentials; both leave the stored hash untouched.
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
				return database.MapPostgresError(err)
			}
			if !exists {
				return models.ErrNotFound
			}
			return models.ErrAlreadyProvisioned
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO credential_issuances (id, account_id, issued_by, notes, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, issuance.ID, issuance.AccountID, issuance.IssuedBy, issuance.Notes, issuance.CreatedAt)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return nil, err
	}

	return issuance, nil
}

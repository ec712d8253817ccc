package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/brailletranslate/backend/internal/models"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

const accountColumns = `id, username, email, password_hash, role, reset_token, reset_token_expires_at, created_at, updated_at`

// accountRepository implements the account store on MySQL
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *accountRepository {
	return &accountRepository{
		db: db,
	}
}

// Create inserts a new account. A missing ID is generated.
// Unique key violations on username or email are reported as models.ErrDuplicateAccount.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Role == "" {
		account.Role = models.RoleUser
	}

	query := `
		INSERT INTO accounts (id, username, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, account.ID, account.Username, account.Email, account.PasswordHash, account.Role); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("failed to create account: %w", models.ErrDuplicateAccount)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// GetByIdentifier retrieves an account whose username or email equals the identifier exactly
func (r *accountRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = ? OR email = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, identifier, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by identifier: %w", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// ExistsByEmail checks if an account exists with the given email
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// ExistsByUsername checks if an account exists with the given username
func (r *accountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// UpdatePasswordHash swaps the password hash only if it still equals oldHash, and clears
// any pending reset token in the same statement. Returns models.ErrWrongCurrentPassword
// when the stored hash changed underneath the caller.
func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL
		WHERE id = ? AND password_hash = ?
	`

	rowsAffected, err := r.exec(ctx, query, newHash, id, oldHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrWrongCurrentPassword
	}

	return nil
}

// RehashPassword upgrades a hash produced with outdated parameters. It is a no-op if
// the password changed concurrently.
func (r *accountRepository) RehashPassword(ctx context.Context, id, oldHash, newHash string) error {
	query := `UPDATE accounts SET password_hash = ? WHERE id = ? AND password_hash = ?`

	if _, err := r.exec(ctx, query, newHash, id, oldHash); err != nil {
		return fmt.Errorf("failed to rehash password: %w", err)
	}

	return nil
}

// SetResetToken stores a reset token digest for the account with the given email,
// overwriting any previous one. Returns models.ErrAccountNotFound if no account matches.
func (r *accountRepository) SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET reset_token = ?, reset_token_expires_at = ?
		WHERE email = ?
	`

	rowsAffected, err := r.exec(ctx, query, tokenHash, expiresAt, email)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrAccountNotFound
	}

	return nil
}

// ConsumeResetToken sets the new password hash and clears the token in one conditional
// update. The token must match and be unexpired at now; otherwise
// models.ErrTokenInvalidOrExpired is returned and nothing changes.
func (r *accountRepository) ConsumeResetToken(ctx context.Context, tokenHash, newHash string, now time.Time) error {
	query := `
		UPDATE accounts
		SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token = ? AND reset_token_expires_at > ?
	`

	rowsAffected, err := r.exec(ctx, query, newHash, tokenHash, now)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrTokenInvalidOrExpired
	}

	return nil
}

// ClearExpiredResetTokens removes reset tokens whose expiry is at or before now
func (r *accountRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE accounts
		SET reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= ?
	`

	rowsAffected, err := r.exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}

	return int(rowsAffected), nil
}

// UpdateProfile changes username and email
func (r *accountRepository) UpdateProfile(ctx context.Context, id, username, email string) error {
	query := `UPDATE accounts SET username = ?, email = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, username, email, id); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("failed to update profile: %w", models.ErrDuplicateAccount)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// UpdateRole changes the role of an account
func (r *accountRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	query := `UPDATE accounts SET role = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, role, id); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return nil
}

// GetByUsername retrieves an account by username
func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	return account, nil
}

// Delete removes an account; its translations are removed by the foreign key
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = ?`

	rowsAffected, err := r.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrAccountNotFound
	}

	return nil
}

// List retrieves accounts with optional role filter, username/email search and pagination.
// page starts at 1.
func (r *accountRepository) List(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error) {
	var whereClauses []string
	var args []any

	if role != nil {
		whereClauses = append(whereClauses, "role = ?")
		args = append(args, *role)
	}

	if search != "" {
		whereClauses = append(whereClauses, "(username LIKE ? OR email LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	offset := (page - 1) * count

	query := fmt.Sprintf(`
		SELECT id, username, email, role, created_at
		FROM accounts
		%s
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, whereClause)

	args = append(args, count, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	items := []models.AccountListItem{}
	for rows.Next() {
		var item models.AccountListItem
		if err := rows.Scan(&item.ID, &item.Username, &item.Email, &item.Role, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return items, nil
}

// Stats counts accounts by role and stored translations
func (r *accountRepository) Stats(ctx context.Context) (*models.AccountStats, error) {
	query := `
		SELECT
			COALESCE(SUM(role = 'user'), 0),
			COALESCE(SUM(role = 'admin'), 0),
			(SELECT COUNT(*) FROM translations)
		FROM accounts
	`

	stats := &models.AccountStats{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Users, &stats.Admins, &stats.Translations); err != nil {
		return nil, fmt.Errorf("failed to get account stats: %w", err)
	}

	return stats, nil
}

func (r *accountRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	var resetToken sql.NullString
	var resetExpiresAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&resetToken,
		&resetExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetToken.Valid && resetExpiresAt.Valid {
		account.ResetTokenHash = &resetToken.String
		account.ResetTokenExpiresAt = &resetExpiresAt.Time
	}

	return account, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brailletranslate/backend/internal/models"
)

const testAccountID = "11111111-1111-1111-1111-111111111111"

var accountColumnNames = []string{"id", "username", "email", "password_hash", "role", "reset_token", "reset_token_expires_at", "created_at", "updated_at"}

// setupAccountTestRepository creates an account repository with a mock database
func setupAccountTestRepository(t *testing.T) (*accountRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAccountRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func accountRow(resetToken any, resetExpiresAt any) *sqlmock.Rows {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(accountColumnNames).
		AddRow(testAccountID, "alice", "alice@x.com", "$2a$10$hash", "user", resetToken, resetExpiresAt, created, created)
}

func TestNewAccountRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewAccountRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestAccountRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		account       *models.Account
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectAnyErr  bool
	}{
		{
			name:    "success",
			account: &models.Account{ID: testAccountID, Username: "alice", Email: "alice@x.com", PasswordHash: "hash", Role: models.RoleUser},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(testAccountID, "alice", "alice@x.com", "hash", models.RoleUser).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "duplicate email",
			account: &models.Account{ID: testAccountID, Username: "alice2", Email: "alice@x.com", PasswordHash: "hash", Role: models.RoleUser},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(testAccountID, "alice2", "alice@x.com", "hash", models.RoleUser).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice@x.com' for key 'email'"})
			},
			expectedError: models.ErrDuplicateAccount,
		},
		{
			name:    "database error",
			account: &models.Account{ID: testAccountID, Username: "alice", Email: "alice@x.com", PasswordHash: "hash", Role: models.RoleUser},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WillReturnError(errors.New("database error"))
			},
			expectAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.account)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.expectAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrDuplicateAccount)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_Create_GeneratesIDAndRole(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "bob", "bob@x.com", "hash", models.RoleUser).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account := &models.Account{Username: "bob", Email: "bob@x.com", PasswordHash: "hash"}
	err := repo.Create(context.Background(), account)

	require.NoError(t, err)
	assert.Len(t, account.ID, 36)
	assert.Equal(t, models.RoleUser, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID(t *testing.T) {
	expires := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectAnyErr  bool
		expectReset   bool
	}{
		{
			name: "success without reset token",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \?`).
					WithArgs(testAccountID).
					WillReturnRows(accountRow(nil, nil))
			},
		},
		{
			name: "success with reset token",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \?`).
					WithArgs(testAccountID).
					WillReturnRows(accountRow("digest", expires))
			},
			expectReset: true,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \?`).
					WithArgs(testAccountID).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrAccountNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \?`).
					WithArgs(testAccountID).
					WillReturnError(errors.New("connection refused"))
			},
			expectAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			account, err := repo.GetByID(context.Background(), testAccountID)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, account)
			case tt.expectAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrAccountNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, "alice", account.Username)
				assert.Equal(t, models.RoleUser, account.Role)
				if tt.expectReset {
					require.NotNil(t, account.ResetTokenHash)
					assert.Equal(t, "digest", *account.ResetTokenHash)
					assert.Equal(t, expires, *account.ResetTokenExpiresAt)
				} else {
					assert.Nil(t, account.ResetTokenHash)
					assert.Nil(t, account.ResetTokenExpiresAt)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_GetByIdentifier(t *testing.T) {
	for _, identifier := range []string{"alice", "alice@x.com"} {
		t.Run(identifier, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			mock.ExpectQuery(`SELECT .+ FROM accounts WHERE username = \? OR email = \?`).
				WithArgs(identifier, identifier).
				WillReturnRows(accountRow(nil, nil))

			account, err := repo.GetByIdentifier(context.Background(), identifier)

			require.NoError(t, err)
			assert.Equal(t, testAccountID, account.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		repo, mock, cleanup := setupAccountTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE username = \? OR email = \?`).
			WithArgs("Alice", "Alice").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByIdentifier(context.Background(), "Alice")

		assert.ErrorIs(t, err, models.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Exists(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM accounts WHERE email = \?\)`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM accounts WHERE username = \?\)`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM accounts WHERE username = \?\)`).
		WithArgs("carol").
		WillReturnError(errors.New("database error"))

	exists, err := repo.ExistsByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.ExistsByUsername(context.Background(), "carol")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdatePasswordHash(t *testing.T) {
	query := regexp.QuoteMeta(`SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL`) + `\s+` + regexp.QuoteMeta(`WHERE id = ? AND password_hash = ?`)

	tests := []struct {
		name          string
		result        driverResult
		expectedError error
	}{
		{name: "success", result: driverResult{rows: 1}},
		{name: "hash changed concurrently", result: driverResult{rows: 0}, expectedError: models.ErrWrongCurrentPassword},
		{name: "database error", result: driverResult{err: errors.New("database error")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			exp := mock.ExpectExec(query).WithArgs("new", testAccountID, "old")
			tt.result.apply(exp)

			err := repo.UpdatePasswordHash(context.Background(), testAccountID, "old", "new")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.result.err != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_RehashPassword(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET password_hash = ? WHERE id = ? AND password_hash = ?`)).
		WithArgs("new", testAccountID, "old").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.RehashPassword(context.Background(), testAccountID, "old", "new"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SetResetToken(t *testing.T) {
	expiresAt := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	query := `UPDATE accounts\s+SET reset_token = \?, reset_token_expires_at = \?\s+WHERE email = \?`

	tests := []struct {
		name          string
		result        driverResult
		expectedError error
	}{
		{name: "success overwrites previous token", result: driverResult{rows: 1}},
		{name: "unknown email", result: driverResult{rows: 0}, expectedError: models.ErrAccountNotFound},
		{name: "database error", result: driverResult{err: errors.New("database error")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			exp := mock.ExpectExec(query).WithArgs("digest", expiresAt, "alice@x.com")
			tt.result.apply(exp)

			err := repo.SetResetToken(context.Background(), "alice@x.com", "digest", expiresAt)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.result.err != nil:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrAccountNotFound)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_ConsumeResetToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	query := `UPDATE accounts\s+SET password_hash = \?, reset_token = NULL, reset_token_expires_at = NULL\s+WHERE reset_token = \? AND reset_token_expires_at > \?`

	tests := []struct {
		name          string
		result        driverResult
		expectedError error
	}{
		{name: "success", result: driverResult{rows: 1}},
		{name: "expired, unknown or already used", result: driverResult{rows: 0}, expectedError: models.ErrTokenInvalidOrExpired},
		{name: "database error", result: driverResult{err: errors.New("database error")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			exp := mock.ExpectExec(query).WithArgs("newhash", "digest", now)
			tt.result.apply(exp)

			err := repo.ConsumeResetToken(context.Background(), "digest", "newhash", now)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.result.err != nil:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrTokenInvalidOrExpired)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_ClearExpiredResetTokens(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE accounts\s+SET reset_token = NULL, reset_token_expires_at = NULL\s+WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= \?`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.ClearExpiredResetTokens(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateProfile(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET username = ?, email = ? WHERE id = ?`)).
		WithArgs("alice", "new@x.com", testAccountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET username = ?, email = ? WHERE id = ?`)).
		WithArgs("bob", "new@x.com", testAccountID).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'bob' for key 'username'"})

	assert.NoError(t, repo.UpdateProfile(context.Background(), testAccountID, "alice", "new@x.com"))
	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), testAccountID, "bob", "new@x.com"), models.ErrDuplicateAccount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateRole(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET role = ? WHERE id = ?`)).
		WithArgs(models.RoleAdmin, testAccountID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateRole(context.Background(), testAccountID, models.RoleAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE username = \? LIMIT 1`).
		WithArgs("alice").
		WillReturnRows(accountRow(nil, nil))
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE username = \? LIMIT 1`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	account, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, testAccountID, account.ID)

	_, err = repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = ?`)).
		WithArgs(testAccountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = ?`)).
		WithArgs(testAccountID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), testAccountID))
	assert.ErrorIs(t, repo.Delete(context.Background(), testAccountID), models.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_List(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "username", "email", "role", "created_at"}
	adminRole := models.RoleAdmin

	tests := []struct {
		name          string
		role          *models.Role
		search        string
		page          int
		count         int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedLen   int
	}{
		{
			name:  "no filters",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow(testAccountID, "alice", "alice@x.com", "admin", created).
					AddRow("22222222-2222-2222-2222-222222222222", "bob", "bob@x.com", "user", created)
				mock.ExpectQuery(`SELECT id, username, email, role, created_at\s+FROM accounts\s+ORDER BY`).
					WithArgs(20, 0).
					WillReturnRows(rows)
			},
			expectedLen: 2,
		},
		{
			name:   "role and search",
			role:   &adminRole,
			search: "ali",
			page:   3,
			count:  10,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow(testAccountID, "alice", "alice@x.com", "admin", created)
				mock.ExpectQuery(`FROM accounts\s+WHERE role = \? AND \(username LIKE \? OR email LIKE \?\)`).
					WithArgs(models.RoleAdmin, "%ali%", "%ali%", 10, 20).
					WillReturnRows(rows)
			},
			expectedLen: 1,
		},
		{
			name:  "empty page",
			page:  5,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM accounts`).
					WithArgs(20, 80).
					WillReturnRows(sqlmock.NewRows(columns))
			},
			expectedLen: 0,
		},
		{
			name:  "query error",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM accounts`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name:  "row error",
			page:  1,
			count: 20,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow(testAccountID, "alice", "alice@x.com", "admin", created).
					RowError(0, errors.New("row error"))
				mock.ExpectQuery(`FROM accounts`).
					WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccountTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			items, err := repo.List(context.Background(), tt.role, tt.search, tt.page, tt.count)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Len(t, items, tt.expectedLen)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_Stats(t *testing.T) {
	repo, mock, cleanup := setupAccountTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT\s+COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"users", "admins", "translations"}).AddRow(10, 2, 57))

	stats, err := repo.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &models.AccountStats{Users: 10, Admins: 2, Translations: 57}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// driverResult describes what a mocked Exec returns
type driverResult struct {
	rows int64
	err  error
}

func (d driverResult) apply(exp *sqlmock.ExpectedExec) {
	if d.err != nil {
		exp.WillReturnError(d.err)
		return
	}
	exp.WillReturnResult(sqlmock.NewResult(0, d.rows))
}

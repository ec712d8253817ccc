package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/auth/authz"
	"github.com/brailletranslate/backend/internal/auth/password"
	"github.com/brailletranslate/backend/internal/metrics"
	"github.com/brailletranslate/backend/internal/models"
)

// DefaultResetTokenTTL is how long a reset token stays valid
const DefaultResetTokenTTL = time.Hour

// resetTokenBytes is the entropy of a reset token before hex encoding
const resetTokenBytes = 32

// AccountSharedRepository is the interface that wraps uniqueness checks common for registration and profile edits
type AccountSharedRepository interface {
	// Method ExistsByEmail checks if an account with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if an account with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// CredentialRepository is the interface that wraps methods for Account table data access used by the credential store
type CredentialRepository interface {
	AccountSharedRepository
	// Method Create inserts a new account.
	//
	// A unique key collision on username or email is returned as models.ErrDuplicateAccount.
	Create(ctx context.Context, account *models.Account) error
	// Method GetByID retrieves an account by ID.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// Method GetByIdentifier retrieves an account whose username or email equals "identifier" exactly.
	//
	// If no account matches, models.ErrAccountNotFound is returned.
	GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	// Method UpdatePasswordHash replaces "oldHash" with "newHash" and clears any pending reset token.
	//
	// If the stored hash is no longer "oldHash", models.ErrWrongCurrentPassword is returned and nothing changes.
	UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error
	// Method RehashPassword replaces "oldHash" with "newHash" without touching the reset token.
	//
	// It is a no-op if the stored hash changed in the meantime.
	RehashPassword(ctx context.Context, id, oldHash, newHash string) error
	// Method SetResetToken stores a reset token digest with its expiry for the account with the given email.
	//
	// Any previous token is overwritten. If no account matches, models.ErrAccountNotFound is returned.
	SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	// Method ConsumeResetToken sets "newHash" and clears the token in a single conditional update.
	//
	// The token must match and expire after "now"; otherwise models.ErrTokenInvalidOrExpired is returned.
	ConsumeResetToken(ctx context.Context, tokenHash, newHash string, now time.Time) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
	VerifyDummy(plaintext string)
	NeedsRehash(hash string) bool
}

// ResetNotifier delivers reset links out-of-band
type ResetNotifier interface {
	// Method NotifyPasswordReset schedules delivery of "token" to "email".
	//
	// Delivery itself may happen later; an error means scheduling failed.
	NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// CredentialOptions holds the policy of the credential service
type CredentialOptions struct {
	// AdminCode is the shared admin provisioning secret; empty disables admin registration
	AdminCode         string
	MinPasswordLength int
	ResetTokenTTL     time.Duration
}

// credentialService implements the credential store and the password reset flow
type credentialService struct {
	accounts  CredentialRepository
	hasher    PasswordHasher
	notifier  ResetNotifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	options   CredentialOptions
	now       func() time.Time
	randToken func() (string, error)
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	accounts CredentialRepository,
	hasher PasswordHasher,
	notifier ResetNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	options CredentialOptions,
) *credentialService {
	if options.MinPasswordLength < 1 {
		options.MinPasswordLength = 1
	}
	if options.ResetTokenTTL <= 0 {
		options.ResetTokenTTL = DefaultResetTokenTTL
	}
	return &credentialService{
		accounts:  accounts,
		hasher:    hasher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		options:   options,
		now:       time.Now,
		randToken: generateResetToken,
	}
}

// Register creates a new account with the user role
func (s *credentialService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	return s.register(ctx, req, models.RoleUser)
}

// RegisterAdmin creates a new admin account if the shared admin code matches
func (s *credentialService) RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Account, error) {
	if !authz.CheckAdminCode(s.options.AdminCode, req.AdminCode) {
		s.logger.Warn("admin registration with invalid code", zap.String("username", req.Username))
		return nil, models.ErrInvalidAdminCode
	}
	return s.register(ctx, &req.RegisterRequest, models.RoleAdmin)
}

func (s *credentialService) register(ctx context.Context, req *models.RegisterRequest, role models.Role) (*models.Account, error) {
	if err := checkRegisterCredentials(ctx, s.accounts, req.Email, req.Username, req.Password, s.options.MinPasswordLength); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("role", string(role)))
	return account, nil
}

// VerifyCredentials returns the account matching the identifier (username or email) and password.
// Unknown identifiers and wrong passwords both yield models.ErrInvalidCredentials.
func (s *credentialService) VerifyCredentials(ctx context.Context, identifier, plaintext string) (*models.Account, error) {
	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if errors.Is(err, models.ErrAccountNotFound) {
		s.hasher.VerifyDummy(plaintext)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	match, err := s.hasher.Verify(plaintext, account.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unusable", zap.String("account_id", account.ID), zap.Error(err))
		return nil, models.ErrInvalidCredentials
	}
	if !match {
		return nil, models.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account, plaintext)
	}

	return account, nil
}

func (s *credentialService) rehash(ctx context.Context, account *models.Account, plaintext string) {
	newHash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.logger.Warn("failed to rehash password", zap.String("account_id", account.ID), zap.Error(err))
		return
	}
	if err := s.accounts.RehashPassword(ctx, account.ID, account.PasswordHash, newHash); err != nil {
		s.logger.Warn("failed to store rehashed password", zap.String("account_id", account.ID), zap.Error(err))
		return
	}
	account.PasswordHash = newHash
}

// Login verifies the credentials of any account
func (s *credentialService) Login(ctx context.Context, req *models.LoginRequest) (*models.Account, error) {
	account, err := s.VerifyCredentials(ctx, req.Identifier, req.Password)
	s.recordLogin("user", err)
	return account, err
}

// AdminLogin verifies the credentials and additionally requires the admin role.
// Valid credentials of a non-admin account yield models.ErrNotAdmin.
func (s *credentialService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.Account, error) {
	account, err := s.VerifyCredentials(ctx, req.Identifier, req.Password)
	if err == nil && !account.IsAdmin() {
		err = models.ErrNotAdmin
	}
	s.recordLogin("admin", err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *credentialService) recordLogin(kind string, err error) {
	switch {
	case err == nil:
		s.metrics.RecordLogin(kind, metrics.OutcomeSuccess)
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrNotAdmin):
		s.metrics.RecordLogin(kind, metrics.OutcomeFailure)
	default:
		s.metrics.RecordLogin(kind, metrics.OutcomeError)
	}
}

// ChangePassword replaces the password of a signed-in account after re-checking the current one
func (s *credentialService) ChangePassword(ctx context.Context, accountID, currentPlaintext, newPlaintext string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	match, err := s.hasher.Verify(currentPlaintext, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify current password: %w", err)
	}
	if !match {
		return models.ErrWrongCurrentPassword
	}

	if err := validatePassword(newPlaintext, s.options.MinPasswordLength); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, account.PasswordHash, newHash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("account_id", account.ID))
	return nil
}

// IssueResetToken creates a reset token for the account with the given email, replacing any
// previous one. Only the token's digest is stored. Returns models.ErrAccountNotFound for unknown emails.
func (s *credentialService) IssueResetToken(ctx context.Context, email string) (string, time.Time, error) {
	token, err := s.randToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.options.ResetTokenTTL)
	if err := s.accounts.SetResetToken(ctx, email, hashResetToken(token), expiresAt); err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// ConsumeResetToken sets a new password using a live reset token. The token is single-use.
func (s *credentialService) ConsumeResetToken(ctx context.Context, token, newPlaintext string) error {
	if err := validatePassword(newPlaintext, s.options.MinPasswordLength); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.accounts.ConsumeResetToken(ctx, hashResetToken(token), newHash, s.now())
	switch {
	case err == nil:
		s.metrics.RecordReset("consume", metrics.OutcomeSuccess)
	case errors.Is(err, models.ErrTokenInvalidOrExpired):
		s.metrics.RecordReset("consume", metrics.OutcomeFailure)
	default:
		s.metrics.RecordReset("consume", metrics.OutcomeError)
	}
	return err
}

// RequestPasswordReset runs the first phase of the reset flow. Unknown emails are not an
// error so callers can answer uniformly; only infrastructure failures are returned.
func (s *credentialService) RequestPasswordReset(ctx context.Context, email string) error {
	token, expiresAt, err := s.IssueResetToken(ctx, email)
	if errors.Is(err, models.ErrAccountNotFound) {
		s.metrics.RecordReset("issue", metrics.OutcomeFailure)
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		s.metrics.RecordReset("issue", metrics.OutcomeError)
		return err
	}

	if err := s.notifier.NotifyPasswordReset(ctx, email, token, expiresAt); err != nil {
		s.metrics.RecordReset("issue", metrics.OutcomeError)
		return fmt.Errorf("failed to schedule reset email: %w", err)
	}

	s.metrics.RecordReset("issue", metrics.OutcomeSuccess)
	return nil
}

// checkRegisterCredentials validates the password and checks email and username uniqueness concurrently
func checkRegisterCredentials(ctx context.Context, accounts AccountSharedRepository, email, username, plaintext string, minLength int) error {
	results := make(chan error, 3)

	go func() {
		results <- validatePassword(plaintext, minLength)
	}()

	go func() {
		exists, err := accounts.ExistsByEmail(ctx, email)
		if err != nil {
			results <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if exists {
			results <- fmt.Errorf("email is taken: %w", models.ErrDuplicateAccount)
			return
		}
		results <- nil
	}()

	go func() {
		exists, err := accounts.ExistsByUsername(ctx, username)
		if err != nil {
			results <- fmt.Errorf("failed to check username: %w", err)
			return
		}
		if exists {
			results <- fmt.Errorf("username is taken: %w", models.ErrDuplicateAccount)
			return
		}
		results <- nil
	}()

	var firstErr error
	for range 3 {
		if err := <-results; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// validatePassword enforces the length policy; bcrypt ignores bytes past 72
func validatePassword(plaintext string, minLength int) error {
	if len([]rune(plaintext)) < minLength {
		return fmt.Errorf("%w: password must be at least %d characters long", models.ErrValidation, minLength)
	}
	if len(plaintext) > password.MaxLength {
		return fmt.Errorf("%w: password must be at most %d bytes long", models.ErrValidation, password.MaxLength)
	}
	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/models"
)

// ProfileRepository is the interface that wraps methods for Account table data access used by profile edits
type ProfileRepository interface {
	AccountSharedRepository
	// Method GetByID retrieves an account by ID.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// Method UpdateProfile sets username and email of the account.
	//
	// A collision with another account is returned as models.ErrDuplicateAccount.
	UpdateProfile(ctx context.Context, id, username, email string) error
}

type accountService struct {
	accounts ProfileRepository
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accounts ProfileRepository, logger *zap.Logger) *accountService {
	return &accountService{
		accounts: accounts,
		logger:   logger,
	}
}

// GetProfile returns the summary of the account
func (s *accountService) GetProfile(ctx context.Context, accountID string) (*models.AccountSummary, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary := account.Summary()
	return &summary, nil
}

// UpdateProfile changes username and/or email. Empty fields keep their current value.
func (s *accountService) UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountSummary, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	username := account.Username
	email := account.Email

	if req.Username != "" && req.Username != account.Username {
		exists, err := s.accounts.ExistsByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("username is taken: %w", models.ErrDuplicateAccount)
		}
		username = req.Username
	}

	if req.Email != "" && req.Email != account.Email {
		exists, err := s.accounts.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("email is taken: %w", models.ErrDuplicateAccount)
		}
		email = req.Email
	}

	if username != account.Username || email != account.Email {
		if err := s.accounts.UpdateProfile(ctx, account.ID, username, email); err != nil {
			return nil, err
		}
		s.logger.Info("profile updated", zap.String("account_id", account.ID))
	}

	account.Username = username
	account.Email = email
	summary := account.Summary()
	return &summary, nil
}

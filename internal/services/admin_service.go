package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/models"
)

// Pagination bounds of the admin account list
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminRepository is the interface that wraps methods for Account table data access used by the admin panel
type AdminRepository interface {
	// Method List retrieves accounts filtered by "role" (nil for all) and "search" (substring of username or email).
	//
	// "page" starts at 1 and "count" is the page size.
	List(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error)
	// Method GetByID retrieves an account by ID.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// Method GetByUsername retrieves an account by its exact username.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	// Method UpdateRole sets the role of the account.
	UpdateRole(ctx context.Context, id string, role models.Role) error
	// Method Delete removes the account.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	Delete(ctx context.Context, id string) error
	// Method Stats counts accounts by role and stored translations.
	Stats(ctx context.Context) (*models.AccountStats, error)
}

type adminService struct {
	accounts AdminRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(accounts AdminRepository, logger *zap.Logger) *adminService {
	return &adminService{
		accounts: accounts,
		logger:   logger,
	}
}

// ListAccounts returns a page of accounts. Out-of-range page and count values are clamped.
func (s *adminService) ListAccounts(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error) {
	if role != nil && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, *role)
	}
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = defaultPageSize
	}
	if count > maxPageSize {
		count = maxPageSize
	}

	return s.accounts.List(ctx, role, search, page, count)
}

// SetRole promotes or demotes an account. Admins cannot change their own role.
// The change applies on the target's next request since roles are read per request.
func (s *adminService) SetRole(ctx context.Context, actorID, targetID string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot change own role", models.ErrValidation)
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}

	if err := s.accounts.UpdateRole(ctx, target.ID, role); err != nil {
		return err
	}

	s.logger.Info("account role changed",
		zap.String("actor_id", actorID),
		zap.String("account_id", target.ID),
		zap.String("role", string(role)))
	return nil
}

// PromoteByUsername grants the admin role to the account with the given username.
// Used to bootstrap the first admin from the command line.
func (s *adminService) PromoteByUsername(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleAdmin {
		if err := s.accounts.UpdateRole(ctx, account.ID, models.RoleAdmin); err != nil {
			return nil, err
		}
		account.Role = models.RoleAdmin
		s.logger.Info("account promoted", zap.String("account_id", account.ID))
	}
	return account, nil
}

// DeleteAccount removes an account. Its sessions stop resolving immediately.
func (s *adminService) DeleteAccount(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot delete own account", models.ErrValidation)
	}
	if err := s.accounts.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("actor_id", actorID), zap.String("account_id", targetID))
	return nil
}

// Stats returns aggregate numbers for the admin dashboard
func (s *adminService) Stats(ctx context.Context) (*models.AccountStats, error) {
	return s.accounts.Stats(ctx)
}

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/braille"
	"github.com/brailletranslate/backend/internal/models"
)

// TranslationRepository is the interface that wraps methods for Translation table data access
type TranslationRepository interface {
	// Method Create stores a translation and sets its ID.
	Create(ctx context.Context, translation *models.Translation) error
	// Method ListByAccount retrieves translations of "accountID", newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Translation, error)
	// Method DeleteByAccount removes every translation of "accountID" and returns how many were removed.
	DeleteByAccount(ctx context.Context, accountID string) (int, error)
}

type translationService struct {
	repo   TranslationRepository
	logger *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(repo TranslationRepository, logger *zap.Logger) *translationService {
	return &translationService{
		repo:   repo,
		logger: logger,
	}
}

// Translate converts the text in the requested direction.
// Translations of signed-in accounts (account non-nil) are added to their history;
// a failure to store them does not fail the translation.
func (s *translationService) Translate(ctx context.Context, account *models.Account, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	var output string
	switch req.Direction {
	case models.DirectionToBraille:
		output = braille.ToBraille(req.Text)
	case models.DirectionToText:
		output = braille.ToText(req.Text)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrValidation, req.Direction)
	}

	if account != nil {
		translation := &models.Translation{
			AccountID: account.ID,
			Direction: req.Direction,
			Input:     req.Text,
			Output:    output,
		}
		if err := s.repo.Create(ctx, translation); err != nil {
			s.logger.Warn("failed to store translation", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return &models.TranslateResponse{
		Input:     req.Text,
		Output:    output,
		Direction: req.Direction,
	}, nil
}

// History returns a page of the account's translations
func (s *translationService) History(ctx context.Context, accountID string, page, count int) ([]models.Translation, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = defaultPageSize
	}
	if count > maxPageSize {
		count = maxPageSize
	}
	return s.repo.ListByAccount(ctx, accountID, count, (page-1)*count)
}

// ClearHistory removes every stored translation of the account
func (s *translationService) ClearHistory(ctx context.Context, accountID string) (int, error) {
	deleted, err := s.repo.DeleteByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("translation history cleared", zap.String("account_id", accountID), zap.Int("deleted", deleted))
	return deleted, nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brailletranslate/backend/internal/models"
)

// translationRepository stores the translation history of signed-in accounts
type translationRepository struct {
	db *sql.DB
}

// NewTranslationRepository creates a new translation repository
func NewTranslationRepository(db *sql.DB) *translationRepository {
	return &translationRepository{
		db: db,
	}
}

// Create inserts a translation and sets its ID
func (r *translationRepository) Create(ctx context.Context, translation *models.Translation) error {
	query := `
		INSERT INTO translations (account_id, direction, input, output)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, translation.AccountID, translation.Direction, translation.Input, translation.Output)
	if err != nil {
		return fmt.Errorf("failed to create translation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	translation.ID = id
	return nil
}

// ListByAccount returns the most recent translations of an account
func (r *translationRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Translation, error) {
	query := `
		SELECT id, account_id, direction, input, output, created_at
		FROM translations
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	translations := []models.Translation{}
	for rows.Next() {
		var t models.Translation
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Direction, &t.Input, &t.Output, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		translations = append(translations, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating translations: %w", err)
	}

	return translations, nil
}

// DeleteByAccount clears the history of an account
func (r *translationRepository) DeleteByAccount(ctx context.Context, accountID string) (int, error) {
	query := `DELETE FROM translations WHERE account_id = ?`

	result, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete translations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

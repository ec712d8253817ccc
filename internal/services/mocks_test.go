package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brailletranslate/backend/internal/models"
)

// mockAccountStore is an in-memory implementation of the account repositories.
// It mirrors the conditional-update semantics of the MySQL repository.
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	// err, when set, is returned by every method
	err error
	// existsErr, when set, is returned by the existence checks only
	existsErr error
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: map[string]*models.Account{}}
}

func (m *mockAccountStore) copyOf(a *models.Account) *models.Account {
	c := *a
	if a.ResetTokenHash != nil {
		h := *a.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if a.ResetTokenExpiresAt != nil {
		e := *a.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &e
	}
	return &c
}

func (m *mockAccountStore) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.accounts {
		if a.Username == account.Username || a.Email == account.Email {
			return models.ErrDuplicateAccount
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.accounts[account.ID] = m.copyOf(account)
	return nil
}

func (m *mockAccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return m.copyOf(a), nil
}

func (m *mockAccountStore) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.Username == identifier || a.Email == identifier {
			return m.copyOf(a), nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (m *mockAccountStore) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.Username == username {
			return m.copyOf(a), nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (m *mockAccountStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, a := range m.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, a := range m.accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountStore) UpdatePasswordHash(ctx context.Context, id, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a, ok := m.accounts[id]
	if !ok || a.PasswordHash != oldHash {
		return models.ErrWrongCurrentPassword
	}
	a.PasswordHash = newHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	return nil
}

func (m *mockAccountStore) RehashPassword(ctx context.Context, id, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if a, ok := m.accounts[id]; ok && a.PasswordHash == oldHash {
		a.PasswordHash = newHash
	}
	return nil
}

func (m *mockAccountStore) SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.accounts {
		if a.Email == email {
			a.ResetTokenHash = &tokenHash
			a.ResetTokenExpiresAt = &expiresAt
			return nil
		}
	}
	return models.ErrAccountNotFound
}

func (m *mockAccountStore) ConsumeResetToken(ctx context.Context, tokenHash, newHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash && a.ResetTokenExpiresAt.After(now) {
			a.PasswordHash = newHash
			a.ResetTokenHash = nil
			a.ResetTokenExpiresAt = nil
			return nil
		}
	}
	return models.ErrTokenInvalidOrExpired
}

func (m *mockAccountStore) UpdateProfile(ctx context.Context, id, username, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for otherID, a := range m.accounts {
		if otherID != id && (a.Username == username || a.Email == email) {
			return models.ErrDuplicateAccount
		}
	}
	a, ok := m.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Username = username
	a.Email = email
	return nil
}

func (m *mockAccountStore) UpdateRole(ctx context.Context, id string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if a, ok := m.accounts[id]; ok {
		a.Role = role
	}
	return nil
}

func (m *mockAccountStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.accounts[id]; !ok {
		return models.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) List(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	items := []models.AccountListItem{}
	for _, a := range m.accounts {
		if role != nil && a.Role != *role {
			continue
		}
		if search != "" && !strings.Contains(a.Username, search) && !strings.Contains(a.Email, search) {
			continue
		}
		items = append(items, models.AccountListItem{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role})
	}
	return items, nil
}

func (m *mockAccountStore) Stats(ctx context.Context) (*models.AccountStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	stats := &models.AccountStats{}
	for _, a := range m.accounts {
		if a.Role == models.RoleAdmin {
			stats.Admins++
		} else {
			stats.Users++
		}
	}
	return stats, nil
}

// mockResetNotifier records scheduled reset emails
type mockResetNotifier struct {
	mu     sync.Mutex
	err    error
	emails []string
	tokens []string
}

func (m *mockResetNotifier) NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, email)
	m.tokens = append(m.tokens, token)
	return nil
}

// mockTranslationRepository is a mock implementation of TranslationRepository
type mockTranslationRepository struct {
	created      []models.Translation
	translations []models.Translation
	err          error
	lastLimit    int
	lastOffset   int
}

func (m *mockTranslationRepository) Create(ctx context.Context, translation *models.Translation) error {
	if m.err != nil {
		return m.err
	}
	translation.ID = int64(len(m.created) + 1)
	m.created = append(m.created, *translation)
	return nil
}

func (m *mockTranslationRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Translation, error) {
	m.lastLimit = limit
	m.lastOffset = offset
	if m.err != nil {
		return nil, m.err
	}
	return m.translations, nil
}

func (m *mockTranslationRepository) DeleteByAccount(ctx context.Context, accountID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	deleted := len(m.translations)
	m.translations = nil
	return deleted, nil
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brailletranslate/backend/internal/aiclient"
	"github.com/brailletranslate/backend/internal/auth/middleware"
	"github.com/brailletranslate/backend/internal/models"
)

const (
	aliceID = "11111111-1111-4111-8111-111111111111"
	bobID   = "22222222-2222-4222-8222-222222222222"

	testSessionSecret = "test-secret-key-that-is-long-enough-32"
)

func testAccount(id, username string, role models.Role) *models.Account {
	return &models.Account{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
}

// mockCredentialService is a mock implementation of CredentialService
type mockCredentialService struct {
	account   *models.Account
	err       error
	resetErr  error
	lastEmail string
	lastToken string
	lastReg   *models.RegisterRequest
}

func (m *mockCredentialService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	m.lastReg = req
	return m.account, m.err
}

func (m *mockCredentialService) RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Account, error) {
	m.lastReg = &req.RegisterRequest
	return m.account, m.err
}

func (m *mockCredentialService) Login(ctx context.Context, req *models.LoginRequest) (*models.Account, error) {
	return m.account, m.err
}

func (m *mockCredentialService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.Account, error) {
	return m.account, m.err
}

func (m *mockCredentialService) RequestPasswordReset(ctx context.Context, email string) error {
	m.lastEmail = email
	return m.resetErr
}

func (m *mockCredentialService) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	m.lastToken = token
	return m.err
}

// mockAccountService is a mock implementation of AccountService, PasswordChanger and HistoryService
type mockAccountService struct {
	profile      *models.AccountSummary
	err          error
	translations []models.Translation
	historyPage  int
	historyCount int
}

func (m *mockAccountService) GetProfile(ctx context.Context, accountID string) (*models.AccountSummary, error) {
	return m.profile, m.err
}

func (m *mockAccountService) UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountSummary, error) {
	return m.profile, m.err
}

func (m *mockAccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	return m.err
}

func (m *mockAccountService) History(ctx context.Context, accountID string, page, count int) ([]models.Translation, error) {
	m.historyPage, m.historyCount = page, count
	return m.translations, m.err
}

func (m *mockAccountService) ClearHistory(ctx context.Context, accountID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.translations), nil
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	items      []models.AccountListItem
	stats      *models.AccountStats
	err        error
	lastRole   *models.Role
	lastSearch string
	lastActor  string
	lastTarget string
}

func (m *mockAdminService) ListAccounts(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error) {
	m.lastRole, m.lastSearch = role, search
	return m.items, m.err
}

func (m *mockAdminService) SetRole(ctx context.Context, actorID, targetID string, role models.Role) error {
	m.lastActor, m.lastTarget = actorID, targetID
	return m.err
}

func (m *mockAdminService) DeleteAccount(ctx context.Context, actorID, targetID string) error {
	m.lastActor, m.lastTarget = actorID, targetID
	return m.err
}

func (m *mockAdminService) Stats(ctx context.Context) (*models.AccountStats, error) {
	return m.stats, m.err
}

// mockTranslationService is a mock implementation of TranslationService
type mockTranslationService struct {
	lastAccount *models.Account
	err         error
}

func (m *mockTranslationService) Translate(ctx context.Context, account *models.Account, req *models.TranslateRequest) (*models.TranslateResponse, error) {
	m.lastAccount = account
	if m.err != nil {
		return nil, m.err
	}
	return &models.TranslateResponse{Input: req.Text, Output: "⠓⠕⠇⠁", Direction: req.Direction}, nil
}

// mockAIClient is a mock implementation of AIClient
type mockAIClient struct {
	result       *aiclient.ImageResult
	err          error
	lastFilename string
	lastImage    []byte
}

func (m *mockAIClient) Health(ctx context.Context) aiclient.HealthStatus {
	return aiclient.HealthStatus{Status: aiclient.StatusFallback, Fallback: true}
}

func (m *mockAIClient) ProcessImage(ctx context.Context, filename string, image []byte) (*aiclient.ImageResult, error) {
	m.lastFilename, m.lastImage = filename, image
	return m.result, m.err
}

func (m *mockAIClient) Feedback(ctx context.Context, req aiclient.FeedbackRequest) (*aiclient.FeedbackResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &aiclient.FeedbackResult{Accepted: true}, nil
}

// mockCleaner is a mock implementation of ResetTokenCleaner
type mockCleaner struct {
	cleared int
	err     error
}

func (m *mockCleaner) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	return m.cleared, m.err
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func withAccount(r *http.Request, account *models.Account) *http.Request {
	return r.WithContext(middleware.WithAccount(r.Context(), account))
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

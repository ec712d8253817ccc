package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/models"
)

// AccountService is the interface that wraps methods for the signed-in account's profile
type AccountService interface {
	// Method GetProfile returns the summary of the account.
	//
	// If the account does not exist, models.ErrAccountNotFound is returned.
	GetProfile(ctx context.Context, accountID string) (*models.AccountSummary, error)
	// Method UpdateProfile changes the username and/or email; empty fields are left unchanged.
	//
	// If the new username or email is taken, models.ErrDuplicateAccount is returned.
	UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountSummary, error)
}

// PasswordChanger is the interface that wraps the password change of a signed-in account
type PasswordChanger interface {
	// Method ChangePassword replaces the password after re-checking the current one.
	//
	// If the current password does not match, models.ErrWrongCurrentPassword is returned.
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
}

// HistoryService is the interface that wraps the translation history lookup
type HistoryService interface {
	// Method History returns a page of the account's translations, newest first.
	History(ctx context.Context, accountID string, page, count int) ([]models.Translation, error)
	// Method ClearHistory removes every translation of the account and returns how many were removed.
	ClearHistory(ctx context.Context, accountID string) (int, error)
}

// AccountHandler handles requests of the signed-in account
type AccountHandler struct {
	BaseHandler
	accounts     AccountService
	passwords    PasswordChanger
	translations HistoryService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	accounts AccountService,
	passwords PasswordChanger,
	translations HistoryService,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		accounts:     accounts,
		passwords:    passwords,
		translations: translations,
	}
}

// RegisterRoutes registers account handler routes
// Note: This assumes the router is already scoped to /api
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/account", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)
		r.With(httprate.LimitByIP(credentialRateLimit, time.Minute)).Post("/password", h.ChangePassword)
		r.Get("/translations", h.ListTranslations)
		r.Delete("/translations", h.ClearTranslations)
	})
}

// GetMe handles GET /account/me
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	account := h.CurrentAccount(w, r)
	if account == nil {
		return
	}

	profile, err := h.accounts.GetProfile(r.Context(), account.ID)
	if err != nil {
		h.RespondServiceError(w, "get profile", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /account/me
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	account := h.CurrentAccount(w, r)
	if account == nil {
		return
	}

	var req models.UpdateProfileRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), account.ID, &req)
	if err != nil {
		h.RespondServiceError(w, "update profile", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// ChangePassword handles POST /account/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account := h.CurrentAccount(w, r)
	if account == nil {
		return
	}

	var req models.ChangePasswordRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.passwords.ChangePassword(r.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.RespondServiceError(w, "change password", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "password changed"})
}

// ListTranslations handles GET /account/translations?page&count
func (h *AccountHandler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	account := h.CurrentAccount(w, r)
	if account == nil {
		return
	}

	page, count := pagination(r)
	items, err := h.translations.History(r.Context(), account.ID, page, count)
	if err != nil {
		h.RespondServiceError(w, "list translations", err)
		return
	}
	if items == nil {
		items = []models.Translation{}
	}

	h.RespondJSON(w, http.StatusOK, items)
}

// ClearTranslations handles DELETE /account/translations
func (h *AccountHandler) ClearTranslations(w http.ResponseWriter, r *http.Request) {
	account := h.CurrentAccount(w, r)
	if account == nil {
		return
	}

	deleted, err := h.translations.ClearHistory(r.Context(), account.ID)
	if err != nil {
		h.RespondServiceError(w, "clear translations", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// pagination reads page and count query parameters; invalid values become 0 and are
// clamped by the services
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	return page, count
}

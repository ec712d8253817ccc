package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/auth/middleware"
	"github.com/brailletranslate/backend/internal/models"
)

// TranslationService is the interface that wraps the Braille translation
type TranslationService interface {
	// Method Translate converts text in the requested direction.
	//
	// "account" is nil for anonymous visitors; otherwise the translation is added to their history.
	Translate(ctx context.Context, account *models.Account, req *models.TranslateRequest) (*models.TranslateResponse, error)
}

// TranslateHandler handles translation requests
type TranslateHandler struct {
	BaseHandler
	translations TranslationService
}

// NewTranslateHandler creates a new translate handler
func NewTranslateHandler(translations TranslationService, logger *zap.Logger) *TranslateHandler {
	return &TranslateHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		translations: translations,
	}
}

// RegisterRoutes registers translate handler routes
// Note: This assumes the router is already scoped to /api
func (h *TranslateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/translate", h.Translate)
}

// Translate handles POST /translate
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	// Public route: the account is only present for signed-in visitors
	account, _ := middleware.AccountFromContext(r.Context())

	resp, err := h.translations.Translate(r.Context(), account, &req)
	if err != nil {
		h.RespondServiceError(w, "translate", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

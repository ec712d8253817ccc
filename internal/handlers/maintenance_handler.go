package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ResetTokenCleaner is the interface that wraps the purge of expired reset tokens
type ResetTokenCleaner interface {
	// Method ClearExpiredResetTokens clears reset tokens that expired before "now" and returns how many were cleared.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}

// MaintenanceHandler handles internal maintenance requests guarded by the API key
type MaintenanceHandler struct {
	BaseHandler
	cleaner ResetTokenCleaner
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(cleaner ResetTokenCleaner, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: BaseHandler{Logger: logger},
		cleaner:     cleaner,
	}
}

// RegisterRoutes registers maintenance handler routes
// Note: This assumes the router is already scoped to /internal
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reset-tokens/clean", h.CleanResetTokens)
}

// CleanResetTokens handles GET /reset-tokens/clean
func (h *MaintenanceHandler) CleanResetTokens(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.cleaner.ClearExpiredResetTokens(r.Context(), time.Now())
	if err != nil {
		h.Logger.Error("failed to clear expired reset tokens", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// 0 cleared rows is not an error
	h.Logger.Info("reset token cleaning completed", zap.Int("cleared", cleared))
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "reset token cleaning completed",
		"cleared": cleared,
	})
}

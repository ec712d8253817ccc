package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/models"
)

// AdminService is the interface that wraps methods for admin operations
type AdminService interface {
	// Method ListAccounts gets a list of accounts with pagination, role and search filters.
	//
	// "role" parameter is nil for all roles.
	// "search" parameter matches a substring of the username or email.
	//
	// If some error occurs, the error will be returned together with nil.
	ListAccounts(ctx context.Context, role *models.Role, search string, page, count int) ([]models.AccountListItem, error)
	// Method SetRole promotes or demotes the target account.
	//
	// "actorID" is the admin performing the change; admins cannot change their own role.
	//
	// If the target does not exist, models.ErrAccountNotFound is returned.
	SetRole(ctx context.Context, actorID, targetID string, role models.Role) error
	// Method DeleteAccount deletes the target account; admins cannot delete themselves.
	//
	// If the target does not exist, models.ErrAccountNotFound is returned.
	DeleteAccount(ctx context.Context, actorID, targetID string) error
	// Method Stats returns aggregate numbers for the admin dashboard.
	Stats(ctx context.Context) (*models.AccountStats, error)
}

// AdminHandler handles admin panel requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers admin handler routes
// Note: This assumes the router is already scoped to /api
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/accounts", h.ListAccounts)
		r.Patch("/accounts/{id}/role", h.UpdateRole)
		r.Delete("/accounts/{id}", h.DeleteAccount)
		r.Get("/stats", h.Stats)
	})
}

// ListAccounts handles GET /admin/accounts?page&count&role&search
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, count := pagination(r)
	search := r.URL.Query().Get("search")

	var role *models.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed := models.Role(raw)
		if !parsed.Valid() {
			h.RespondError(w, http.StatusBadRequest, "role must be user or admin")
			return
		}
		role = &parsed
	}

	items, err := h.adminService.ListAccounts(r.Context(), role, search, page, count)
	if err != nil {
		h.RespondServiceError(w, "list accounts", err)
		return
	}
	if items == nil {
		items = []models.AccountListItem{}
	}

	h.RespondJSON(w, http.StatusOK, items)
}

// UpdateRole handles PATCH /admin/accounts/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := h.CurrentAccount(w, r)
	if actor == nil {
		return
	}

	targetID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.adminService.SetRole(r.Context(), actor.ID, targetID, req.Role); err != nil {
		h.RespondServiceError(w, "set role", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "role updated"})
}

// DeleteAccount handles DELETE /admin/accounts/{id}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor := h.CurrentAccount(w, r)
	if actor == nil {
		return
	}

	targetID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteAccount(r.Context(), actor.ID, targetID); err != nil {
		h.RespondServiceError(w, "delete account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.RespondServiceError(w, "stats", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) accountIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid account id")
		return "", false
	}
	return id, true
}

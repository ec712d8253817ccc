package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/auth/session"
	"github.com/brailletranslate/backend/internal/models"
)

// credentialRateLimit applies per IP to endpoints that check passwords or tokens
const credentialRateLimit = 10

const forgotPasswordMessage = "if an account with that email exists, a reset link has been sent"

// CredentialService is the interface that wraps methods for registration, login and password reset.
type CredentialService interface {
	// Method Register validates the request and creates an account with the user role.
	//
	// If the username or email is taken, models.ErrDuplicateAccount is returned.
	// If the password violates the policy, models.ErrValidation is returned.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	// Method RegisterAdmin creates an admin account when the request carries the configured admin code.
	//
	// If the code does not match, models.ErrInvalidAdminCode is returned.
	RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Account, error)
	// Method Login verifies an identifier (username or email) and password.
	//
	// Unknown identifiers and wrong passwords both yield models.ErrInvalidCredentials.
	Login(ctx context.Context, req *models.LoginRequest) (*models.Account, error)
	// Method AdminLogin is Login restricted to admin accounts.
	//
	// Valid credentials of a non-admin account yield models.ErrNotAdmin.
	AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.Account, error)
	// Method RequestPasswordReset issues a reset token and schedules its delivery.
	//
	// Unknown emails are not an error. If some infrastructure error occurs, it is returned.
	RequestPasswordReset(ctx context.Context, email string) error
	// Method ConsumeResetToken sets a new password using a live reset token.
	//
	// If the token is unknown, used or expired, models.ErrTokenInvalidOrExpired is returned.
	ConsumeResetToken(ctx context.Context, token, newPassword string) error
}

// SessionIssuer is the interface that wraps session cookie handling
type SessionIssuer interface {
	// Method Issue mints a credential for the account and sets the session cookie.
	Issue(w http.ResponseWriter, accountID string) (*session.Credential, error)
	// Method Revoke clears the session cookie and denies "raw" server-side when supported.
	Revoke(ctx context.Context, w http.ResponseWriter, raw string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	credentials CredentialService
	sessions    SessionIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	credentials CredentialService,
	sessions SessionIssuer,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		credentials: credentials,
		sessions:    sessions,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(credentialRateLimit, time.Minute))
			r.Post("/register", h.Register)
			r.Post("/register-admin", h.RegisterAdmin)
			r.Post("/login", h.Login)
			r.Post("/admin/login", h.AdminLogin)
			r.Post("/password/forgot", h.ForgotPassword)
			r.Post("/password/reset", h.ResetPassword)
		})
		r.Post("/logout", h.Logout)
	})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, "register", err)
		return
	}

	h.startSession(w, http.StatusCreated, account)
}

// RegisterAdmin handles POST /auth/register-admin
func (h *AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterAdminRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.RegisterAdmin(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, "register admin", err)
		return
	}

	h.startSession(w, http.StatusCreated, account)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, "login", err)
		return
	}

	h.startSession(w, http.StatusOK, account)
}

// AdminLogin handles POST /auth/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.credentials.AdminLogin(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, "admin login", err)
		return
	}

	h.startSession(w, http.StatusOK, account)
}

// Logout handles POST /auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, _ := session.FromRequest(r)
	if err := h.sessions.Revoke(r.Context(), w, raw); err != nil {
		// The cookie is already cleared; the credential simply lives until expiry
		h.Logger.Warn("failed to revoke session", zap.Error(err))
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "logged out"})
}

// ForgotPassword handles POST /auth/password/forgot.
// The answer is identical whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.credentials.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.Logger.Error("failed to process password reset request", zap.Error(err))
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: forgotPasswordMessage})
}

// ResetPassword handles POST /auth/password/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Malformed tokens are reported like unknown ones
	if validate.Var(req.Token, "required,hexadecimal,len=64") != nil {
		h.RespondError(w, http.StatusBadRequest, models.ErrTokenInvalidOrExpired.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.credentials.ConsumeResetToken(r.Context(), req.Token, req.NewPassword); err != nil {
		h.RespondServiceError(w, "reset password", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "password has been reset"})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, account *models.Account) {
	if _, err := h.sessions.Issue(w, account.ID); err != nil {
		h.Logger.Error("failed to issue session", zap.String("account_id", account.ID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.RespondJSON(w, status, account.Summary())
}

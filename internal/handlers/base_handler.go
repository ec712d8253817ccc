// Package handlers exposes the HTTP API of the backend
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/auth/middleware"
	"github.com/brailletranslate/backend/internal/models"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes the request body into dst and validates it.
// On failure a 400 response has already been written and false is returned.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeBody(r, dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// RespondServiceError maps a service error to a status and a client-safe message.
// Unknown errors become 500 and are logged with the operation name.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		h.RespondError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": "))
	case errors.Is(err, models.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, models.ErrSessionInvalid):
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, models.ErrNotAdmin):
		h.RespondError(w, http.StatusForbidden, models.ErrNotAdmin.Error())
	case errors.Is(err, models.ErrInvalidAdminCode):
		h.RespondError(w, http.StatusForbidden, models.ErrInvalidAdminCode.Error())
	case errors.Is(err, models.ErrInsufficientRole):
		h.RespondError(w, http.StatusForbidden, models.ErrInsufficientRole.Error())
	case errors.Is(err, models.ErrWrongCurrentPassword):
		h.RespondError(w, http.StatusBadRequest, models.ErrWrongCurrentPassword.Error())
	case errors.Is(err, models.ErrTokenInvalidOrExpired):
		h.RespondError(w, http.StatusBadRequest, models.ErrTokenInvalidOrExpired.Error())
	case errors.Is(err, models.ErrDuplicateAccount):
		h.RespondError(w, http.StatusConflict, models.ErrDuplicateAccount.Error())
	case errors.Is(err, models.ErrAccountNotFound):
		h.RespondError(w, http.StatusNotFound, models.ErrAccountNotFound.Error())
	default:
		h.Logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// CurrentAccount returns the account the route guard attached to the request.
// Writes 401 and returns nil when there is none.
func (h *BaseHandler) CurrentAccount(w http.ResponseWriter, r *http.Request) *models.Account {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return account
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s is too short", field)
	case "max":
		return fmt.Sprintf("%s is too long", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

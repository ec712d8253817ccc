// Package authz decides which resource classes an account may reach.
package authz

import (
	"crypto/subtle"

	"github.com/brailletranslate/backend/internal/models"
)

// ResourceClass is the privilege tier a route belongs to
type ResourceClass string

// Resource classes in ascending privilege
const (
	ClassPublic        ResourceClass = "public"
	ClassAuthenticated ResourceClass = "authenticated"
	ClassAdmin         ResourceClass = "admin"
)

// Valid reports whether the class is one of the defined classes
func (c ResourceClass) Valid() bool {
	return c == ClassPublic || c == ClassAuthenticated || c == ClassAdmin
}

// Reason explains a denial
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNoSession        Reason = "no_session"
	ReasonInsufficientRole Reason = "insufficient_role"
)

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err maps a denial to the shared error taxonomy; nil when allowed
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNoSession:
		return models.ErrSessionInvalid
	case ReasonInsufficientRole:
		return models.ErrInsufficientRole
	}
	return nil
}

var allow = Decision{Allowed: true}

// Authorize decides whether the account (nil when no valid session resolved) may reach the class.
// It keeps no state: the role is taken from the account as loaded for this request.
func Authorize(account *models.Account, class ResourceClass) Decision {
	switch class {
	case ClassPublic:
		return allow
	case ClassAuthenticated:
		if account == nil {
			return Decision{Reason: ReasonNoSession}
		}
		return allow
	default:
		// Admin and anything unrecognized require the admin role
		if account == nil {
			return Decision{Reason: ReasonNoSession}
		}
		if account.Role != models.RoleAdmin {
			return Decision{Reason: ReasonInsufficientRole}
		}
		return allow
	}
}

// CheckAdminCode compares a supplied admin provisioning code with the configured one.
//
// This is a single shared secret, not per-admin provisioning: anyone holding the code can
// create an admin account. It is only suitable for low-stakes deployments. An empty
// configured code disables admin registration.
func CheckAdminCode(configured, supplied string) bool {
	if configured == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

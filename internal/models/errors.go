package models

import "errors"

// Errors shared by the credential store, session and authorization layers.
//
// ErrAccountNotFound is internal only: handlers on unauthenticated endpoints never surface it.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountNotFound       = errors.New("account not found")
	ErrWrongCurrentPassword  = errors.New("current password is incorrect")
	ErrTokenInvalidOrExpired = errors.New("token is invalid or expired")
	ErrSessionInvalid        = errors.New("session is invalid")
	ErrInsufficientRole      = errors.New("insufficient permissions")
	ErrDuplicateAccount      = errors.New("account already exists")
	ErrNotAdmin              = errors.New("admin access required")
	ErrInvalidAdminCode      = errors.New("invalid admin code")
	ErrValidation            = errors.New("validation failed")
)

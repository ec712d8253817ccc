package models

// RegisterRequest represents a registration request.
// Usernames never contain "@" so a login identifier is unambiguous.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// RegisterAdminRequest represents an admin registration request guarded by the shared admin code
type RegisterAdminRequest struct {
	RegisterRequest
	AdminCode string `json:"adminCode" validate:"required"`
}

// LoginRequest represents a login request; Identifier is a username or an email
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents a password change by a signed-in account
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,hexadecimal,len=64"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

// UpdateProfileRequest represents a profile edit; empty fields are left unchanged
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=64,excludes=@"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// UpdateRoleRequest represents an admin role change
type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=user admin"`
}

// MessageResponse is a generic message body
type MessageResponse struct {
	Message string `json:"message"`
}

package models

import "time"

// Role is the privilege level of an account
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the defined roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents a registered user or admin
type Account struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Never serialize password hash
	Role                Role       `json:"role"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the account holds the admin role
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Summary returns the client-safe view of the account
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
	}
}

// AccountSummary is the minimal account view returned to clients
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// AccountListItem represents an account in the admin list
type AccountListItem struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccountStats holds aggregate numbers for the admin dashboard
type AccountStats struct {
	Users        int `json:"users"`
	Admins       int `json:"admins"`
	Translations int `json:"translations"`
}

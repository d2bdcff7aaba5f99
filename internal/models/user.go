package models

import (
	"time"
)

// User is the public profile joined onto comments
type User struct {
	ID             string    `json:"id" db:"id"`
	DisplayName    string    `json:"displayName" db:"display_name"`
	Email          string    `json:"email" db:"email"`
	PhotoURL       string    `json:"photoUrl" db:"photo_url"`
	GithubUsername string    `json:"githubUsername" db:"github_username"`
	Role           string    `json:"role" db:"role"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ProviderInfo describes one sign-in provider linked to an identity
type ProviderInfo struct {
	ProviderID string `json:"providerId"`
	UID        string `json:"uid"`
}

// AuthUser is the identity resolved from a request's bearer token
type AuthUser struct {
	UID          string         `json:"uid"`
	DisplayName  string         `json:"displayName"`
	Email        string         `json:"email"`
	PhotoURL     string         `json:"photoURL"`
	Role         string         `json:"role,omitempty"`
	ProviderData []ProviderInfo `json:"providerData"`
}

// IsAdmin reports whether the identity carries the admin role
func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

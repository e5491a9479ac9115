// Package auth handles Foodgram accounts and API token authentication. It
// provides registration, token login and logout, password changes, and the
// user profile endpoints. Tokens are opaque random strings sent as
// "Authorization: Token <key>" and stored in Redis under a keyed hash.
//
// This is a CORE plugin: every other plugin reads the viewer from here.
package auth

import (
	"strings"
	"time"
)

// User represents a registered Foodgram user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	IsAdmin      bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// DisplayName is the human-readable name used in headers, e.g. the shopping
// list: "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Profile is the public user representation with the viewer-relative
// subscription flag.
type Profile struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// ToProfile projects a user for a viewer.
func (u *User) ToProfile(isSubscribed bool) Profile {
	return Profile{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted to create an account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest holds the credentials exchanged for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest holds a password change.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// --- Session ---

// Session is the data stored in Redis for an issued token.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

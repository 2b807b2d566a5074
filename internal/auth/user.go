// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Package auth defines the reader accounts and sessions of the Iqra platform.
//
// # Architecture
//
// Entities in this package represent the "Truth" of the system.
// They have no dependencies on outer layers (like databases, APIs, or libraries).
// This makes the core logic highly testable and resilient to technology changes.
package auth

import (
	"time"
)

// UserRole represents the authorization level granted to an account.
//
// # Usage
//
// Used by [middleware.RequireRole] to enforce access control on API endpoints.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"   // Unrestricted system access.
	UserRoleCurator UserRole = "curator" // Can manage the book catalogue and quizzes.
	UserRoleMember  UserRole = "member"  // Default role for registered readers.
)

// level maps a role to a numeric hierarchy level to easily check permissions.
func (r UserRole) level() int {
	switch r {
	case UserRoleAdmin:
		return 30
	case UserRoleCurator:
		return 20
	case UserRoleMember:
		return 10
	default:
		return 0
	}
}

// AtLeast checks if the current role meets or exceeds the required target role.
//
// # Why numeric mapping?
//
// Using numeric levels allows simple >= comparisons instead of nested IF/SWITCH
// statements when deciding if a Curator has permission to do a Member-level action.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// User represents a registered reader profile.
//
// # Rules
//   - Username is unique and URL-safe.
//   - Email is unique and validated.
//   - PasswordHash is generated via Bcrypt exclusively via the auth Service.
//   - WalletAddress is optional; it links the profile to a ledger identity.
//   - TotalPoints / PagesRead / QuizzesPassed form the relational points
//     mirror. They are a display cache, not the source of truth: when a ledger
//     is configured, the ledger's totals win.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName   string    `json:"display_name"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	TotalPoints   int64     `json:"total_points"`
	PagesRead     int64     `json:"pages_read"`
	QuizzesPassed int64     `json:"quizzes_passed"`
	Role          UserRole  `json:"role"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session represents an active refresh-token session.
//
// # Security Concept
//
// Access Tokens (JWT) are stateless and cannot be revoked easily before they expire.
// To mitigate this, Iqra uses short-lived JWTs paired with long-lived Sessions
// stored in the database. When the JWT expires, the client uses the Session
// (Refresh Token) to issue a new JWT. Revoking a Session logs the user out globally.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"` // Hashed value of the refresh token. Omitted for security.
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

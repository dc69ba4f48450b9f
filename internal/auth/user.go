// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

/*
Package auth implements the user identity and session layer.

It defines the core domain entity (User) and the logic for registration,
authentication, and the access/refresh token lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered Beacon account.
//
// The database row is the source of truth; there is no in-memory cache.
// Accounts are never hard-deleted by application code.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	RefreshToken string    `json:"-"` // Currently valid refresh token. Omitted for security.
	TokenVersion int       `json:"-"` // Bumping this invalidates all previously issued tokens.
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldFirstName            = "firstName"
	FieldLastName             = "lastName"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldConfirmationPassword = "confirmationPassword"
	FieldAccessToken          = "accessToken"
	FieldID                   = "id"
	FieldLoggedOut            = "loggedOut"
	FieldMessage              = "message"
)

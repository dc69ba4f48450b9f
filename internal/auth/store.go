// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package auth

import "context"

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// # Error Contract
//
// Lookups return [apperr.NotFound] when no row matches and a wrapped storage
// error otherwise, so callers can always tell "absent" apart from "failed".
// Mutations return a wrapped storage error; a unique-index violation on
// Create surfaces as [apperr.Conflict].
type UserRepository interface {

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByRefreshToken returns the account that owns the given stored
		refresh-token value.

		Parameters:
		  - context: context.Context
		  - refreshToken: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByRefreshToken(context context.Context, refreshToken string) (*User, error)

	/*
		UpdateRefreshToken replaces the stored refresh-token value for a user.
		An empty value clears the stored token (logout).

		Parameters:
		  - context: context.Context
		  - userID: string
		  - refreshToken: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateRefreshToken(context context.Context, userID, refreshToken string) error

	/*
		BumpTokenVersion increments the user's token-version counter,
		invalidating every previously issued token for the account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	BumpTokenVersion(context context.Context, userID string) error
}

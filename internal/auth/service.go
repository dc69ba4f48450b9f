// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

/*
Package auth implements the core identity and access management system.

It handles everything from user registration and secure password hashing to
the access/refresh token lifecycle.

Architecture:

  - Service: Orchestrates business logic (Register, Login, Logout, Refresh).
  - Repository: Abstracted interface for PostgreSQL (Users).
  - Security: Leverages bcrypt hashing and HS256-signed JWTs.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/sec"
	"github.com/beaconapp/beacon/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying security tokens.
type TokenProvider interface {
	// IssueTokenPair mints a signed access/refresh token pair for the payload.
	IssueTokenPair(payload sec.TokenPayload) (*sec.TokenPair, error)

	// IssueAccessToken mints only a fresh access token for the payload.
	IssueAccessToken(payload sec.TokenPayload) (string, error)

	// VerifyRefreshToken checks signature, expiry, and claim structure of a
	// refresh token.
	VerifyRefreshToken(tokenStr string) (*sec.Claims, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, tokenProv TokenProvider) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
	}
}

// Credentials represents a successfully established user session.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

/*
Register validates, hashes, and persists a brand new user account, then
establishes its first session.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Credentials: Transport-ready session identifiers
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Credentials, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		TokenVersion: 0,
	}

	// Persist the user to the database. The unique index on email is the
	// final arbiter against concurrent registrations.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return service.establishSession(context, user)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
and stores the freshly issued refresh token on the account.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Credentials: Transport-ready session identifiers
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Credentials, error) {
	user, err := service.userRepository.FindByEmail(context, input.Email)

	// Unknown email. Generic message to prevent enumeration.
	if isNotFound(err) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// Verify password hash using bcrypt's constant-time comparison to prevent timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	return service.establishSession(context, user)
}

/*
Logout detaches the stored refresh token from its account.

Description: Idempotent. An unknown or absent token is already logged out.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	user, err := service.userRepository.FindByRefreshToken(context, refreshToken)

	// Token is already gone or was never issued: logout is successful.
	if err != nil {
		return nil
	}

	if err := service.userRepository.UpdateRefreshToken(context, user.ID, ""); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Refresh

/*
Refresh re-issues an access token against a presented refresh token.

Description: Resolves the stored refresh-token value to its owning account,
verifies the token's signature/expiry/version, and mints a fresh access token.

The refresh token itself is NOT rotated: the same token remains valid until
its own expiry. This mirrors the deployed behavior and is a documented
weakness: a captured refresh token stays usable for its full lifetime.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: Fresh access token
  - error: Forbidden (unknown token), Unauthorized (invalid token), or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (string, error) {

	// Resolve token value → owning account. An unknown value is a Forbidden,
	// distinct from a missing cookie (handled at the transport layer).
	user, err := service.userRepository.FindByRefreshToken(context, refreshToken)
	if isNotFound(err) {
		return "", apperr.Forbidden("User not found")
	}
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	// Verify signature, expiry, and claim structure against the refresh secret.
	claims, err := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", apperr.Unauthorized("Invalid or expired refresh token")
	}

	// A version mismatch means the account's tokens were mass-invalidated
	// after this one was minted.
	if claims.TokenVersion != user.TokenVersion {
		return "", apperr.Unauthorized("Invalid or expired refresh token")
	}

	accessToken, err := service.tokenProvider.IssueAccessToken(payloadFor(user))
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	return accessToken, nil
}

/*
RevokeAllSessions bumps the account's token version, invalidating every
previously issued refresh token at once (e.g. after a password change).

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) RevokeAllSessions(context context.Context, userID string) error {
	if err := service.userRepository.BumpTokenVersion(context, userID); err != nil {
		return fmt.Errorf("auth_service_revoke_all_failed: %w", err)
	}
	return nil
}

// # Profile

/*
Profile returns the full account entity for an authenticated user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// # Helpers

// establishSession issues a token pair for the user and stores the refresh
// token on the account row.
func (service *Service) establishSession(context context.Context, user *User) (*Credentials, error) {
	pair, err := service.tokenProvider.IssueTokenPair(payloadFor(user))
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// The stored value is replaced on every login, so only the newest
	// refresh token resolves back to the account.
	if err := service.userRepository.UpdateRefreshToken(context, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_store_refresh_token_failed: %w", err)
	}
	user.RefreshToken = pair.RefreshToken

	return &Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

// payloadFor snapshots the identity claims a token pair is minted from.
func payloadFor(user *User) sec.TokenPayload {
	return sec.TokenPayload{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		TokenVersion: user.TokenVersion,
	}
}

// isNotFound reports whether err is the repository's "no such row" signal.
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.Code == "NOT_FOUND"
}

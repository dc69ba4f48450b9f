// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

// PostgreSQL implementation of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/postgres"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool   postgres.PgxPool
	logger *slog.Logger
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool postgres.PgxPool, logger *slog.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool, logger: logger}
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account data, ensuring timestamps are initialized
if not provided. A duplicate email surfaces as a client-safe Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, first_name, last_name, email, password_hash, refresh_token, token_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.RefreshToken,
		user.TokenVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		repository.logger.Error("user_repo_create_failed",
			slog.String("collection", "users.account"),
			slog.String("operation", "insert"),
			slog.Any("error", err),
		)
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, first_name, last_name, email, password_hash, refresh_token, token_version, created_at, updated_at
		FROM users.account
		WHERE email = $1`

	return repository.findOne(context, query, "find_by_email", email)
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, first_name, last_name, email, password_hash, refresh_token, token_version, created_at, updated_at
		FROM users.account
		WHERE id = $1`

	return repository.findOne(context, query, "find_by_id", id)
}

/*
FindByRefreshToken retrieves the user owning the given stored refresh token.

Description: Resolves the refresh cookie value back to its account during the
session refresh flow.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByRefreshToken(context context.Context, refreshToken string) (*User, error) {
	const query = `
		SELECT id, first_name, last_name, email, password_hash, refresh_token, token_version, created_at, updated_at
		FROM users.account
		WHERE refresh_token = $1`

	return repository.findOne(context, query, "find_by_refresh_token", refreshToken)
}

/*
UpdateRefreshToken replaces only the stored refresh-token value for a user.

Parameters:
  - context: context.Context
  - userID: string
  - refreshToken: string (empty clears the stored token)

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdateRefreshToken(context context.Context, userID, refreshToken string) error {
	const query = `
		UPDATE users.account
		SET refresh_token = $2, updated_at = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, refreshToken, time.Now())
	if err != nil {
		repository.logger.Error("user_repo_update_refresh_token_failed",
			slog.String("collection", "users.account"),
			slog.String("operation", "update"),
			slog.Any("error", err),
		)
		return fmt.Errorf("postgres_user_repo_update_refresh_token_failed: %w", err)
	}

	return nil
}

/*
BumpTokenVersion increments the user's token-version counter.

Description: Every token embeds the version it was minted against, so a bump
invalidates all previously issued refresh tokens at once.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) BumpTokenVersion(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET token_version = token_version + 1, updated_at = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		repository.logger.Error("user_repo_bump_token_version_failed",
			slog.String("collection", "users.account"),
			slog.String("operation", "update"),
			slog.Any("error", err),
		)
		return fmt.Errorf("postgres_user_repo_bump_token_version_failed: %w", err)
	}

	return nil
}

// findOne runs a single-row account query and maps pgx.ErrNoRows to a
// NotFound distinct from genuine storage failures.
func (repository *PostgresUserRepository) findOne(context context.Context, query, operation string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.TokenVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		repository.logger.Error("user_repo_lookup_failed",
			slog.String("collection", "users.account"),
			slog.String("operation", operation),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("postgres_user_repo_%s_failed: %w", operation, err)
	}

	return user, nil
}

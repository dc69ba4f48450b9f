// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconapp/beacon/internal/auth"
	"github.com/beaconapp/beacon/internal/platform/apperr"
)

func newMockRepository(t *testing.T) (*auth.PostgresUserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewUserRepository(mock, logger), mock
}

func accountColumns() []string {
	return []string{
		"id", "first_name", "last_name", "email", "password_hash",
		"refresh_token", "token_version", "created_at", "updated_at",
	}
}

/*
TestUserRepository_Create_OK verifies the insert statement and that
timestamps are initialized on the entity.
*/
func TestUserRepository_Create_OK(t *testing.T) {
	repository, mock := newMockRepository(t)

	user := &auth.User{
		ID:           "0191e3a0-0000-7000-8000-000000000001",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@beacon.app",
		PasswordHash: "$2a$10$hash",
	}

	mock.ExpectExec(`INSERT INTO users\.account`).
		WithArgs(user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
			"", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repository.Create(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
TestUserRepository_Create_DuplicateEmail verifies a unique-index violation
surfaces as a client-safe Conflict.
*/
func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repository, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO users\.account`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "account_email_key"})

	err := repository.Create(context.Background(), &auth.User{
		ID:    "0191e3a0-0000-7000-8000-000000000002",
		Email: "taken@beacon.app",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestUserRepository_FindByEmail_OK verifies row hydration.
*/
func TestUserRepository_FindByEmail_OK(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users\.account\s+WHERE email = \$1`).
		WithArgs("ada@beacon.app").
		WillReturnRows(pgxmock.NewRows(accountColumns()).AddRow(
			"0191e3a0-0000-7000-8000-000000000001", "Ada", "Lovelace",
			"ada@beacon.app", "$2a$10$hash", "stored-refresh", 2, now, now,
		))

	user, err := repository.FindByEmail(context.Background(), "ada@beacon.app")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "stored-refresh", user.RefreshToken)
	assert.Equal(t, 2, user.TokenVersion)
}

/*
TestUserRepository_FindByEmail_NotFound verifies pgx.ErrNoRows maps to a
typed NotFound, distinct from storage failures.
*/
func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	repository, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM users\.account\s+WHERE email = \$1`).
		WithArgs("ghost@beacon.app").
		WillReturnError(pgx.ErrNoRows)

	_, err := repository.FindByEmail(context.Background(), "ghost@beacon.app")

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestUserRepository_FindByEmail_StorageFailure verifies connectivity errors
do NOT masquerade as NotFound.
*/
func TestUserRepository_FindByEmail_StorageFailure(t *testing.T) {
	repository, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM users\.account\s+WHERE email = \$1`).
		WithArgs("ada@beacon.app").
		WillReturnError(assert.AnError)

	_, err := repository.FindByEmail(context.Background(), "ada@beacon.app")
	require.Error(t, err)
	assert.Nil(t, apperr.As(err))
}

/*
TestUserRepository_FindByRefreshToken_OK verifies the refresh cookie value
resolves to its owning account.
*/
func TestUserRepository_FindByRefreshToken_OK(t *testing.T) {
	repository, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users\.account\s+WHERE refresh_token = \$1`).
		WithArgs("the-refresh-token").
		WillReturnRows(pgxmock.NewRows(accountColumns()).AddRow(
			"0191e3a0-0000-7000-8000-000000000001", "Ada", "Lovelace",
			"ada@beacon.app", "$2a$10$hash", "the-refresh-token", 0, now, now,
		))

	user, err := repository.FindByRefreshToken(context.Background(), "the-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "ada@beacon.app", user.Email)
}

/*
TestUserRepository_UpdateRefreshToken verifies both the replace and the
clear (logout) forms.
*/
func TestUserRepository_UpdateRefreshToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"replace", "new-refresh-token"},
		{"clear_on_logout", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository, mock := newMockRepository(t)

			mock.ExpectExec(`UPDATE users\.account\s+SET refresh_token = \$2`).
				WithArgs("0191e3a0-0000-7000-8000-000000000001", tt.token, pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))

			err := repository.UpdateRefreshToken(context.Background(), "0191e3a0-0000-7000-8000-000000000001", tt.token)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

/*
TestUserRepository_BumpTokenVersion verifies the version increment statement.
*/
func TestUserRepository_BumpTokenVersion(t *testing.T) {
	repository, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE users\.account\s+SET token_version = token_version \+ 1`).
		WithArgs("0191e3a0-0000-7000-8000-000000000001", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repository.BumpTokenVersion(context.Background(), "0191e3a0-0000-7000-8000-000000000001")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

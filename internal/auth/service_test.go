// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconapp/beacon/internal/auth"
	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/sec"
)

// memoryRepository is an in-memory UserRepository for service tests.
type memoryRepository struct {
	users map[string]*auth.User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: map[string]*auth.User{}}
}

func (r *memoryRepository) Create(_ context.Context, user *auth.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (r *memoryRepository) FindByRefreshToken(_ context.Context, refreshToken string) (*auth.User, error) {
	if refreshToken == "" {
		return nil, apperr.NotFound("User")
	}
	for _, user := range r.users {
		if user.RefreshToken == refreshToken {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryRepository) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	user, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshToken = refreshToken
	return nil
}

func (r *memoryRepository) BumpTokenVersion(_ context.Context, userID string) error {
	user, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.TokenVersion++
	return nil
}

func newTestAuthService(t *testing.T) (*auth.Service, *memoryRepository, *sec.TokenService) {
	t.Helper()

	tokenService, err := sec.NewTokenService(
		"svc-test-access-secret", "svc-test-refresh-secret", "beacon.test",
		time.Hour, 14*24*time.Hour,
	)
	require.NoError(t, err)

	repository := newMemoryRepository()
	return auth.NewService(repository, tokenService), repository, tokenService
}

func registerTestUser(t *testing.T, service *auth.Service) *auth.Credentials {
	t.Helper()

	credentials, err := service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@beacon.app",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)
	return credentials
}

/*
TestService_Register verifies registration opens a session: hashed password,
stored refresh token, verifiable access token.
*/
func TestService_Register(t *testing.T) {
	service, repository, tokenService := newTestAuthService(t)

	credentials := registerTestUser(t, service)
	require.NotNil(t, credentials.User)
	assert.NotEmpty(t, credentials.AccessToken)
	assert.NotEmpty(t, credentials.RefreshToken)

	// Password is never stored in the clear.
	stored := repository.users[credentials.User.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse battery", stored.PasswordHash)
	assert.Equal(t, credentials.RefreshToken, stored.RefreshToken)

	claims, err := tokenService.VerifyAccessToken(credentials.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, credentials.User.ID, claims.UserID)
	assert.Equal(t, "ada@beacon.app", claims.Email)
}

/*
TestService_Register_DuplicateEmail verifies the pre-check surfaces a
Conflict for an already registered email.
*/
func TestService_Register_DuplicateEmail(t *testing.T) {
	service, _, _ := newTestAuthService(t)
	registerTestUser(t, service)

	_, err := service.Register(context.Background(), auth.RegisterInput{
		FirstName: "Imposter",
		LastName:  "Lovelace",
		Email:     "ada@beacon.app",
		Password:  "another password",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestService_Login verifies the credential paths. Unknown email and wrong
password share one generic message to prevent user enumeration.
*/
func TestService_Login(t *testing.T) {
	service, _, _ := newTestAuthService(t)
	registerTestUser(t, service)

	t.Run("valid_credentials", func(t *testing.T) {
		credentials, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "ada@beacon.app",
			Password: "correct horse battery",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, credentials.AccessToken)
		assert.Equal(t, "ada@beacon.app", credentials.User.Email)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "ada@beacon.app",
			Password: "wrong password",
		})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "UNAUTHORIZED", ae.Code)
		assert.Equal(t, "Invalid login credentials", ae.Message)
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "ghost@beacon.app",
			Password: "irrelevant",
		})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "Invalid login credentials", ae.Message)
	})
}

/*
TestService_Refresh verifies the refresh contract: unknown token → 403
"User not found", valid token → fresh access token, and NO rotation of the
refresh token itself.
*/
func TestService_Refresh(t *testing.T) {
	service, repository, tokenService := newTestAuthService(t)
	credentials := registerTestUser(t, service)

	t.Run("unknown_token_value", func(t *testing.T) {
		_, err := service.Refresh(context.Background(), "value-nobody-owns")
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FORBIDDEN", ae.Code)
		assert.Equal(t, "User not found", ae.Message)
	})

	t.Run("valid_token_mints_access_only", func(t *testing.T) {
		accessToken, err := service.Refresh(context.Background(), credentials.RefreshToken)
		require.NoError(t, err)

		claims, err := tokenService.VerifyAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, credentials.User.ID, claims.UserID)

		// The stored refresh token is unchanged: no rotation.
		stored := repository.users[credentials.User.ID]
		assert.Equal(t, credentials.RefreshToken, stored.RefreshToken)
	})

	t.Run("stale_token_version", func(t *testing.T) {
		require.NoError(t, service.RevokeAllSessions(context.Background(), credentials.User.ID))

		_, err := service.Refresh(context.Background(), credentials.RefreshToken)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "UNAUTHORIZED", ae.Code)
	})
}

/*
TestService_Logout verifies the stored token is cleared and that logging
out twice (or with garbage) is not an error.
*/
func TestService_Logout(t *testing.T) {
	service, repository, _ := newTestAuthService(t)
	credentials := registerTestUser(t, service)

	require.NoError(t, service.Logout(context.Background(), credentials.RefreshToken))
	assert.Empty(t, repository.users[credentials.User.ID].RefreshToken)

	// Idempotent: the token is already gone.
	assert.NoError(t, service.Logout(context.Background(), credentials.RefreshToken))
	assert.NoError(t, service.Logout(context.Background(), "never-issued"))
}

/*
TestService_Profile verifies the authenticated profile lookup.
*/
func TestService_Profile(t *testing.T) {
	service, _, _ := newTestAuthService(t)
	credentials := registerTestUser(t, service)

	user, err := service.Profile(context.Background(), credentials.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@beacon.app", user.Email)

	_, err = service.Profile(context.Background(), "0191e3a0-0000-7000-8000-00000000dead")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconapp/beacon/internal/platform/sec"
)

const (
	testAccessSecret  = "unit-test-access-secret"
	testRefreshSecret = "unit-test-refresh-secret"
	testIssuer        = "beacon.test"
)

func newTestService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testAccessSecret, testRefreshSecret, testIssuer, time.Hour, 14*24*time.Hour)
	require.NoError(t, err)
	return service
}

/*
TestNewTokenService_Configuration verifies that misconfigured secrets fail
at construction time, not per request.
*/
func TestNewTokenService_Configuration(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		wantErr       bool
	}{
		{"valid_distinct_secrets", "a-secret", "r-secret", false},
		{"missing_access_secret", "", "r-secret", true},
		{"missing_refresh_secret", "a-secret", "", true},
		{"shared_secret", "same", "same", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenService(tt.accessSecret, tt.refreshSecret, testIssuer, time.Hour, time.Hour)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestIssueTokenPair_RoundTrip checks that a pair carries two distinct signed
strings and that each round-trips the identity claims against its own secret.
*/
func TestIssueTokenPair_RoundTrip(t *testing.T) {
	service := newTestService(t)

	payload := sec.TokenPayload{
		ID:           "0191e3a0-0000-7000-8000-000000000001",
		Email:        "member@beacon.app",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		TokenVersion: 3,
	}

	pair, err := service.IssueTokenPair(payload)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessClaims, err := service.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, payload.ID, accessClaims.UserID)
	assert.Equal(t, payload.Email, accessClaims.Email)
	assert.Equal(t, payload.TokenVersion, accessClaims.TokenVersion)
	assert.Equal(t, testIssuer, accessClaims.Issuer)

	refreshClaims, err := service.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, payload.ID, refreshClaims.UserID)
	assert.Equal(t, payload.Email, refreshClaims.Email)
}

/*
TestVerify_CrossSecretRejection asserts each token verifies only against
its own secret.
*/
func TestVerify_CrossSecretRejection(t *testing.T) {
	service := newTestService(t)

	pair, err := service.IssueTokenPair(sec.TokenPayload{
		ID:    "0191e3a0-0000-7000-8000-000000000002",
		Email: "member@beacon.app",
	})
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	_, err = service.VerifyRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestVerify_WrongSecret asserts tokens signed elsewhere always fail,
regardless of their claim structure.
*/
func TestVerify_WrongSecret(t *testing.T) {
	service := newTestService(t)

	other, err := sec.NewTokenService("other-access", "other-refresh", testIssuer, time.Hour, time.Hour)
	require.NoError(t, err)

	pair, err := other.IssueTokenPair(sec.TokenPayload{
		ID:    "0191e3a0-0000-7000-8000-000000000003",
		Email: "member@beacon.app",
	})
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestVerify_ExpiredToken asserts expired tokens are rejected as invalid,
not as malformed claims.
*/
func TestVerify_ExpiredToken(t *testing.T) {
	service, err := sec.NewTokenService(testAccessSecret, testRefreshSecret, testIssuer, -time.Minute, -time.Minute)
	require.NoError(t, err)

	pair, err := service.IssueTokenPair(sec.TokenPayload{
		ID:    "0191e3a0-0000-7000-8000-000000000004",
		Email: "member@beacon.app",
	})
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestVerify_StructurallyInvalidClaims asserts a token whose signature
verifies but whose payload is malformed fails with ErrClaimsInvalid.
*/
func TestVerify_StructurallyInvalidClaims(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		name    string
		payload sec.TokenPayload
	}{
		{"missing_user_id", sec.TokenPayload{ID: "", Email: "member@beacon.app"}},
		{"malformed_email", sec.TokenPayload{ID: "0191e3a0-0000-7000-8000-000000000005", Email: "not-an-email"}},
		{"empty_email", sec.TokenPayload{ID: "0191e3a0-0000-7000-8000-000000000006", Email: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := service.IssueTokenPair(tt.payload)
			require.NoError(t, err)

			_, err = service.VerifyAccessToken(pair.AccessToken)
			assert.ErrorIs(t, err, sec.ErrClaimsInvalid)
			assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}
}

/*
TestIssueAccessToken_StandaloneMint checks the refresh-flow mint path
produces a verifiable access token.
*/
func TestIssueAccessToken_StandaloneMint(t *testing.T) {
	service := newTestService(t)

	token, err := service.IssueAccessToken(sec.TokenPayload{
		ID:    "0191e3a0-0000-7000-8000-000000000007",
		Email: "member@beacon.app",
	})
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0191e3a0-0000-7000-8000-000000000007", claims.UserID)

	// The standalone mint uses the access secret, never the refresh secret.
	_, err = service.VerifyRefreshToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestPasswordHashing covers the bcrypt helpers.
*/
func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
}

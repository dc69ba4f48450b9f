// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconapp/beacon/internal/platform/ctxutil"
	"github.com/beaconapp/beacon/internal/platform/middleware"
	"github.com/beaconapp/beacon/internal/platform/ratelimit"
	"github.com/beaconapp/beacon/internal/platform/sec"
)

// stubVerifier records whether verification was reached and returns a
// scripted result.
type stubVerifier struct {
	called bool
	claims *sec.Claims
	err    error
}

func (v *stubVerifier) VerifyAccessToken(tokenStr string) (*sec.Claims, error) {
	v.called = true
	return v.claims, v.err
}

// decodeEnvelope unmarshals the standard error envelope from a recorder.
func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestAuthenticate_HeaderFormat asserts malformed Authorization headers are
rejected with a 400-class response BEFORE any signature verification runs.
*/
func TestAuthenticate_HeaderFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"no_scheme", "token-without-scheme"},
		{"wrong_scheme", "Basic dXNlcjpwYXNz"},
		{"empty_token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{}
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run")
			})

			request := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			middleware.Authenticate(verifier)(next).ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.False(t, verifier.called, "verifier must not be reached")

			body := decodeEnvelope(t, recorder)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
		})
	}
}

/*
TestAuthenticate_VerificationFailures asserts both failure classes map to
401 with distinct messages, never 500.
*/
func TestAuthenticate_VerificationFailures(t *testing.T) {
	tests := []struct {
		name        string
		verifierErr error
		wantMessage string
	}{
		{"bad_signature", sec.ErrTokenInvalid, "Invalid or expired token"},
		{"malformed_claims", sec.ErrClaimsInvalid, "Token payload structure invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{err: tt.verifierErr}
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run")
			})

			request := httptest.NewRequest(http.MethodGet, "/protected", nil)
			request.Header.Set("Authorization", "Bearer some.jwt.token")
			recorder := httptest.NewRecorder()

			middleware.Authenticate(verifier)(next).ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.True(t, verifier.called)

			body := decodeEnvelope(t, recorder)
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

/*
TestAuthenticate_Success asserts validated claims reach the handler via the
request context.
*/
func TestAuthenticate_Success(t *testing.T) {
	claims := &sec.Claims{UserID: "user-1", Email: "member@beacon.app"}
	verifier := &stubVerifier{claims: claims}

	var seen *sec.Claims
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer valid.jwt.token")
	recorder := httptest.NewRecorder()

	middleware.Authenticate(verifier)(next).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
}

// scriptedLimiter returns fixed verdicts/errors for LoginRateLimit tests.
type scriptedLimiter struct {
	verdict ratelimit.Verdict
	err     error
}

func (l *scriptedLimiter) Allow(_ context.Context, _ string) (ratelimit.Verdict, error) {
	return l.verdict, l.err
}

/*
TestLoginRateLimit covers the allow, cap, and fail-open branches.
*/
func TestLoginRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *scriptedLimiter
		wantStatus int
		wantNext   bool
	}{
		{"under_the_cap", &scriptedLimiter{verdict: ratelimit.Verdict{Allowed: true, Remaining: 3}}, http.StatusOK, true},
		{"capped", &scriptedLimiter{verdict: ratelimit.Verdict{Allowed: false}}, http.StatusTooManyRequests, false},
		{"backing_store_down_fails_open", &scriptedLimiter{err: assert.AnError}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextRan := false
			next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				nextRan = true
				writer.WriteHeader(http.StatusOK)
			})

			request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			recorder := httptest.NewRecorder()

			middleware.LoginRateLimit(tt.limiter)(next).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantNext, nextRan)

			if tt.wantStatus == http.StatusTooManyRequests {
				body := decodeEnvelope(t, recorder)
				assert.Equal(t, middleware.LoginAttemptMessage, body["message"])
			}
		})
	}
}

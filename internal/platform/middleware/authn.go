// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

// Package middleware provides the HTTP middleware chain for the Beacon API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthN, Rate Limiting, and CORS.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/constants"
	"github.com/beaconapp/beacon/internal/platform/ctxutil"
	"github.com/beaconapp/beacon/internal/platform/respond"
	"github.com/beaconapp/beacon/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the token service
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.Claims, error)
}

// Authenticate requires and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Require 'Authorization: Bearer <token>'. A missing or malformed header
//     is a client formatting error (400), distinct from an auth failure, and
//     is rejected before any signature work.
//  2. Verify signature and expiry via [TokenVerifier], 401 on failure.
//  3. Validate the decoded claim structure, also 401. A payload that fails
//     schema validation is expected adversarial input, never a 5xx.
//  4. Inject [*sec.Claims] into the request context for downstream use.
//
// Each request is evaluated independently; there are no retries and no side
// effects beyond context injection.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Header Format ──────────────────────────────────────────────
			if authHeader == "" {
				respond.Error(writer, request, apperr.ValidationError("Authorization header missing"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				respond.Error(writer, request, apperr.ValidationError("Invalid authorization format"))
				return
			}

			// ── 2+3. Token Verification & Claim Validation ────────────────────
			claims, err := verifier.VerifyAccessToken(parts[1])
			if err != nil {
				if errors.Is(err, sec.ErrClaimsInvalid) {
					respond.Error(writer, request, apperr.Unauthorized("Token payload structure invalid"))
					return
				}
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that carry no authenticated identity.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It exists for route
// groups that compose handlers behind a single guard.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/ctxutil"
	"github.com/beaconapp/beacon/internal/platform/ratelimit"
	"github.com/beaconapp/beacon/internal/platform/respond"
)

// LoginAttemptMessage is the fixed client-facing message for a capped client.
// The message never varies, so it leaks nothing about the window state.
const LoginAttemptMessage = "Too many login attempts, please try again later"

// LoginRateLimit caps attempts on the login endpoint per client IP using a
// fixed-window [ratelimit.AttemptLimiter].
//
// # Failure Policy
//
// If the limiter's backing store is unreachable the request is allowed and
// the failure is logged: locking every user out during a Redis outage is a
// worse failure mode than briefly losing brute-force protection.
func LoginRateLimit(limiter ratelimit.AttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			clientIP := RealIP(request)

			verdict, err := limiter.Allow(request.Context(), clientIP)
			if err != nil {
				logger := ctxutil.GetLogger(request.Context())
				logger.ErrorContext(request.Context(), "login_rate_limiter_unavailable",
					slog.String("ip", clientIP),
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			if !verdict.Allowed {
				respond.Error(writer, request, apperr.RateLimited(LoginAttemptMessage))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Kept short to minimize the impact of a leaked token.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (14 days) to provide a good user experience.
	RefreshTokenTTL = 14 * 24 * time.Hour

	// MinPasswordLength is the minimum accepted password length on
	// registration.
	MinPasswordLength = 8
)

// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer behind small consumer-side interfaces.
package sec

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure classes.
//
// Signature/expiry failures and structural claim failures are deliberately
// distinct errors: both reject the request as unauthenticated, but they are
// different adversarial inputs and are logged differently.
var (
	// ErrTokenInvalid indicates a bad signature, a wrong signing method,
	// or an expired token.
	ErrTokenInvalid = errors.New("sec: token signature or expiry invalid")

	// ErrClaimsInvalid indicates a token whose signature verifies but whose
	// decoded payload fails structural validation (missing id, bad email).
	ErrClaimsInvalid = errors.New("sec: token payload structure invalid")
)

// Claims represents the payload embedded inside a Beacon JWT.
//
// # Why custom claims?
//
// By embedding the user identity directly inside the token, request
// authentication can reconstruct the active user context WITHOUT querying
// the database on every single API request.
type Claims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID       string `json:"uid"`
	Email        string `json:"email"`
	FirstName    string `json:"fnm,omitempty"`
	LastName     string `json:"lnm,omitempty"`
	TokenVersion int    `json:"tvr"`
}

// TokenPayload is the identity snapshot a token pair is minted from.
type TokenPayload struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	TokenVersion int
}

// TokenPair holds a freshly issued access/refresh token couple.
//
// The access token authorizes API requests via the Authorization header;
// the refresh token is delivered as an httpOnly cookie and is used solely
// to mint new access tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies HS256-signed access and refresh tokens.
//
// Access and refresh tokens are signed with DISTINCT secrets so that a
// leaked refresh secret cannot be used to forge access tokens (and vice
// versa), and each carries its own expiry.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService from the two signing secrets.
//
// A missing or shared secret is a misconfiguration: it fails here, at
// startup, never per-request.
func NewTokenService(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if accessSecret == "" {
		return nil, errors.New("sec: access token secret is not configured")
	}
	if refreshSecret == "" {
		return nil, errors.New("sec: refresh token secret is not configured")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

/*
IssueTokenPair mints a signed access/refresh token pair for the given payload.

Description: The access token is short-lived and signed with the access secret;
the refresh token is long-lived and signed with the refresh secret. Both carry
the same identity claims.

Parameters:
  - payload: TokenPayload (must carry a stable user id and email)

Returns:
  - *TokenPair: Two independently verifiable signed strings
  - error: Signing failures only (cannot happen with a configured secret)
*/
func (service *TokenService) IssueTokenPair(payload TokenPayload) (*TokenPair, error) {
	accessToken, err := service.sign(payload, service.accessSecret, service.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	refreshToken, err := service.sign(payload, service.refreshSecret, service.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// IssueAccessToken mints only a fresh access token for the given payload.
// Used by session refresh, which re-issues access tokens without touching
// the refresh token.
func (service *TokenService) IssueAccessToken(payload TokenPayload) (string, error) {
	accessToken, err := service.sign(payload, service.accessSecret, service.accessTTL)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}
	return accessToken, nil
}

// AccessTokenTTL reports the configured access token lifetime.
func (service *TokenService) AccessTokenTTL() time.Duration { return service.accessTTL }

// RefreshTokenTTL reports the configured refresh token lifetime.
func (service *TokenService) RefreshTokenTTL() time.Duration { return service.refreshTTL }

// VerifyAccessToken checks signature, expiry, and claim structure of an
// access token. Returns [ErrTokenInvalid] or [ErrClaimsInvalid] on failure.
func (service *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return service.verify(tokenString, service.accessSecret)
}

// VerifyRefreshToken checks signature, expiry, and claim structure of a
// refresh token. Returns [ErrTokenInvalid] or [ErrClaimsInvalid] on failure.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return service.verify(tokenString, service.refreshSecret)
}

// sign builds and signs the claim set with the given secret and lifetime.
func (service *TokenService) sign(payload TokenPayload, secret []byte, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.ID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:       payload.ID,
		Email:        payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		TokenVersion: payload.TokenVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verify parses the token against the given secret and validates the
// decoded claim shape.
func (service *TokenService) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	// A valid signature does not make the payload trustworthy: the claim
	// shape is validated independently, and a mismatch is an authentication
	// failure, not a server error.
	if err := validateShape(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// validateShape checks the structural invariants of a decoded claim set.
func validateShape(claims *Claims) error {
	if claims.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrClaimsInvalid)
	}
	if _, err := mail.ParseAddress(claims.Email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrClaimsInvalid)
	}
	return nil
}

// Copyright (c) 2026 Beacon. All rights reserved.
// Author: eng@beacon.app

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beaconapp/beacon/internal/platform/apperr"
	"github.com/beaconapp/beacon/internal/platform/constants"
	"github.com/beaconapp/beacon/internal/platform/middleware"
	"github.com/beaconapp/beacon/internal/platform/ratelimit"
	requestutil "github.com/beaconapp/beacon/internal/platform/request"
	"github.com/beaconapp/beacon/internal/platform/respond"
	"github.com/beaconapp/beacon/internal/platform/validate"
)

// # HTTP Delivery

// CookiePolicy configures how the refresh-token cookie is written.
//
// Secure is disabled only in development so the cookie survives plain-HTTP
// localhost testing.
type CookiePolicy struct {
	Domain string
	Secure bool
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (Registration, Login,
// Logout, Session refresh) and the refresh-token cookie contract.
type Handler struct {
	authService   *Service
	tokenVerifier middleware.TokenVerifier
	loginLimiter  ratelimit.AttemptLimiter
	cookiePolicy  CookiePolicy
}

// NewHandler constructs a new [Handler] with its collaborators.
func NewHandler(service *Service, verifier middleware.TokenVerifier, limiter ratelimit.AttemptLimiter, cookiePolicy CookiePolicy) *Handler {
	return &Handler{
		authService:   service,
		tokenVerifier: verifier,
		loginLimiter:  limiter,
		cookiePolicy:  cookiePolicy,
	}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register : Creates an account and opens a session.
//   - POST /login    : Authenticates and opens a session (rate limited per IP).
//   - POST /logout   : Revokes the stored refresh token.
//   - GET  /refresh  : Mints a fresh access token from the refresh cookie.
//   - GET  /me       : Returns the authenticated user's profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.With(middleware.LoginRateLimit(handler.loginLimiter)).Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/refresh", handler.refresh)

	// Authenticated subtree.
	router.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticate(handler.tokenVerifier))
		protected.Get("/me", handler.me)
	})

	return router
}

// # Request / Response Shapes

// registerRequest represents the JSON payload expected for account creation.
type registerRequest struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	ConfirmationPassword string `json:"confirmationPassword"`
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the flat body returned by register and login.
//
// The refresh token is intentionally absent: it travels only inside the
// httpOnly cookie and never appears in a response body.
type sessionResponse struct {
	AccessToken string `json:"accessToken"`
	Email       string `json:"email"`
	ID          string `json:"id"`
}

// refreshResponse is the body returned by a successful session refresh.
type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// logoutResponse confirms a completed logout.
type logoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}

// # Endpoints

// register handles POST /auth/register requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with the fresh session identifiers.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if the email is taken.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation (Explicit & Mandatory) ────────────────────

	// Prevent malformed data from reaching the service layer.
	validator := &validate.Validator{}
	validator.
		Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldConfirmationPassword, input.ConfirmationPassword, input.Password, "Passwords do not match")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	credentials, err := handler.authService.Register(request.Context(), RegisterInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	handler.setRefreshCookie(writer, credentials.RefreshToken)
	respond.OK(writer, sessionResponse{
		AccessToken: credentials.AccessToken,
		Email:       credentials.User.Email,
		ID:          credentials.User.ID,
	})
}

// login handles POST /auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with the fresh session identifiers.
//   - Writes HTTP 401 Unauthorized on bad credentials.
//   - Writes HTTP 429 Too Many Requests once the per-IP attempt window is spent.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation (Explicit & Mandatory) ────────────────────

	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	credentials, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	handler.setRefreshCookie(writer, credentials.RefreshToken)
	respond.OK(writer, sessionResponse{
		AccessToken: credentials.AccessToken,
		Email:       credentials.User.Email,
		ID:          credentials.User.ID,
	})
}

// logout handles POST /auth/logout requests.
//
// Logout is idempotent: a missing or unknown refresh cookie still yields a
// successful response, since the session is already gone.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		if err := handler.authService.Logout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearRefreshCookie(writer)
	respond.OK(writer, logoutResponse{LoggedOut: true})
}

// refresh handles GET /auth/refresh requests.
//
// # Returns
//   - Writes HTTP 200 OK with a fresh access token.
//   - Writes HTTP 401 Unauthorized when the refresh cookie is absent.
//   - Writes HTTP 403 Forbidden when the token resolves to no account.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("No token present"))
		return
	}

	accessToken, err := handler.authService.Refresh(request.Context(), cookie.Value)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, refreshResponse{AccessToken: accessToken})
}

// me handles GET /auth/me requests for the authenticated user.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Cookie Management

// setRefreshCookie attaches the refresh token as an httpOnly cookie.
//
// SameSite=Strict keeps the cookie off cross-site requests entirely, which
// is acceptable because only the SPA's own origin calls the refresh endpoint.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Domain:   handler.cookiePolicy.Domain,
		MaxAge:   int(RefreshTokenTTL / time.Second),
		HttpOnly: true,
		Secure:   handler.cookiePolicy.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie on the client.
func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		Domain:   handler.cookiePolicy.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.cookiePolicy.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

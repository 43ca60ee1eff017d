// Copyright 2026 The Yaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yaasproject/yaas/internal/identity"
	"github.com/yaasproject/yaas/internal/oauth"
	"github.com/yaasproject/yaas/internal/observability/logger"
	"github.com/yaasproject/yaas/internal/observability/metrics"
	"github.com/yaasproject/yaas/internal/org"
	"github.com/yaasproject/yaas/internal/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	oauthService    *oauth.Service
	orgService      *org.Service
	bootstrapper    *identity.Bootstrapper
	counters        *metrics.AuthCounters
	secret          string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	oauthService *oauth.Service,
	orgService *org.Service,
	bootstrapper *identity.Bootstrapper,
	counters *metrics.AuthCounters,
	secret string,
) *Handler {
	return &Handler{
		identityService: identityService,
		oauthService:    oauthService,
		orgService:      orgService,
		bootstrapper:    bootstrapper,
		counters:        counters,
		secret:          secret,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/select-org", h.SelectOrg)
		r.With(h.AuthMiddleware).Get("/me", h.Me)
	})

	r.Route("/oauth", func(r chi.Router) {
		r.With(h.AuthMiddleware, RequireOrgScope).Post("/authorize", h.Authorize)
		r.Post("/token", h.Token)
		r.With(h.AuthMiddleware, RequireOrgScope).Post("/revoke", h.Revoke)
	})

	r.Route("/orgs", func(r chi.Router) {
		r.Use(h.AuthMiddleware, RequireOrgScope)
		r.Post("/", h.CreateOrg)
		r.Post("/{orgID}/apps", h.RegisterApp)
		r.Post("/{orgID}/members", h.AddMember)
		r.Put("/{orgID}/members/{userID}/roles", h.UpdateMemberRoles)
		r.Delete("/{orgID}/members/{userID}", h.RemoveMember)
	})

	r.Post("/setup", h.Setup)

	return r
}

// HealthCheck reports liveness
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

type authResponse struct {
	Token             string               `json:"token"`
	CsrfToken         string               `json:"csrf_token"`
	NeedsOrgSelection bool                 `json:"needs_org_selection"`
	Orgs              []identity.OrgOption `json:"orgs,omitempty"`
	User              userResponse         `json:"user"`
}

func newAuthResponse(res *identity.AuthResult) authResponse {
	return authResponse{
		Token:             res.Token,
		CsrfToken:         res.CsrfToken,
		NeedsOrgSelection: res.NeedsOrgSelection,
		Orgs:              res.Orgs,
		User: userResponse{
			ID:     res.User.ID,
			Email:  res.User.Email,
			Name:   res.User.Name,
			Status: string(res.User.Status),
		},
	}
}

// Login verifies credentials and issues a bearer and csrf token pair
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.countLogin(r, "failure")
		h.respondAuthError(w, r, err)
		return
	}

	h.countLogin(r, "success")
	h.counters.TokensIssued.Add(r.Context(), 1)
	respondJSON(w, http.StatusOK, newAuthResponse(res))
}

type selectOrgRequest struct {
	OrgID string `json:"org_id"`
}

// SelectOrg trades an auth-scoped token and an org choice for a full token.
// The restricted token comes in the Authorization header like any other.
func (h *Handler) SelectOrg(w http.ResponseWriter, r *http.Request) {
	bearer := bearerToken(r)
	if bearer == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req selectOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.identityService.SelectOrg(r.Context(), bearer, req.OrgID)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}

	h.counters.TokensIssued.Add(r.Context(), 1)
	respondJSON(w, http.StatusOK, newAuthResponse(res))
}

type meResponse struct {
	User        userResponse `json:"user"`
	OrgID       string       `json:"org_id,omitempty"`
	Scope       string       `json:"scope"`
	Roles       []string     `json:"roles,omitempty"`
	Permissions []string     `json:"permissions,omitempty"`
}

// Me returns the resolved actor behind the presented token
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	if actor == nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	res := meResponse{
		User: userResponse{
			ID:     actor.User.ID,
			Email:  actor.User.Email,
			Name:   actor.User.Name,
			Status: string(actor.User.Status),
		},
		OrgID: actor.OrgID,
		Scope: actor.Scope,
	}
	for _, role := range actor.Roles {
		res.Roles = append(res.Roles, string(role))
	}
	for _, p := range actor.Permissions {
		res.Permissions = append(res.Permissions, string(p))
	}

	respondJSON(w, http.StatusOK, res)
}

type authorizeRequest struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope"`
	State       string `json:"state"`
}

type authorizeResponse struct {
	Code        string    `json:"code"`
	State       string    `json:"state"`
	RedirectURI string    `json:"redirect_uri"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Authorize issues an authorization code for the authenticated actor
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := h.oauthService.Issue(r.Context(), oauth.IssueRequest{
		ClientID:    req.ClientID,
		OrgID:       actor.OrgID,
		UserID:      actor.User.ID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		State:       req.State,
	})
	if err != nil {
		slog.WarnContext(r.Context(), "authorization request rejected",
			logger.ClientID(req.ClientID), logger.RedirectURI(req.RedirectURI), logger.Error(err))
		h.respondOauthError(w, r, err)
		return
	}

	slog.DebugContext(r.Context(), "authorization code issued",
		logger.CodeID(code.Code), logger.AppID(code.AppID), logger.Scope(code.Scope))

	respondJSON(w, http.StatusOK, authorizeResponse{
		Code:        code.Code,
		State:       code.State,
		RedirectURI: code.RedirectURI,
		ExpiresAt:   code.ExpiresAt,
	})
}

type tokenRequest struct {
	Code         string `json:"code"`
	State        string `json:"state"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	UserID      string `json:"user_id"`
	OrgID       string `json:"org_id"`
}

// Token exchanges an authorization code for a bearer token carrying the
// identity the code was issued for
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.oauthService.Exchange(r.Context(), oauth.ExchangeRequest{
		Code:         req.Code,
		State:        req.State,
		RedirectURI:  req.RedirectURI,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		h.countExchange(r, "failure")
		h.respondOauthError(w, r, err)
		return
	}

	bearer, err := token.IssueBearer(token.Actor{
		ID:    grant.UserID,
		OrgID: grant.OrgID,
		Scope: grant.Scope,
	}, h.secret)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token for grant", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.countExchange(r, "success")
	h.counters.TokensIssued.Add(r.Context(), 1)
	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: bearer,
		TokenType:   "Bearer",
		Scope:       grant.Scope,
		UserID:      grant.UserID,
		OrgID:       grant.OrgID,
	})
}

type revokeRequest struct {
	Code string `json:"code"`
}

// Revoke discards an authorization code before it is exchanged
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.oauthService.Revoke(r.Context(), req.Code); err != nil {
		slog.ErrorContext(r.Context(), "failed to revoke code", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setupRequest struct {
	SetupKey string `json:"setup_key"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Setup redeems the one-time setup key and creates the first superuser
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.bootstrapper.ConsumeSetupKey(r.Context(), req.SetupKey, req.Email, req.Password)
	if err != nil {
		var vErr *identity.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "validation failed",
				"violations": vErr.Violations,
			})
		case errors.Is(err, identity.ErrSetupUnavailable),
			errors.Is(err, identity.ErrSetupKeyMismatch):
			// One message for both: probing whether setup is open gets
			// nothing.
			respondError(w, http.StatusForbidden, "setup rejected")
		default:
			slog.ErrorContext(r.Context(), "setup failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, userResponse{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Status: string(user.Status),
	})
}

// respondAuthError maps identity errors to HTTP responses. Unknown email and
// wrong password arrive here already merged into ErrInvalidCredentials.
func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *identity.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": vErr.Violations,
		})
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, identity.ErrCredentialsNotConfigured),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrTokenExpired):
		// Accounts with no stored password render the same as unknown
		// accounts; only the audit log keeps the distinction.
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, identity.ErrInactiveAccount):
		respondError(w, http.StatusForbidden, "account is inactive")
	case errors.Is(err, identity.ErrInvalidClient):
		respondError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, org.ErrMembershipNotFound), errors.Is(err, org.ErrOrgNotFound):
		respondError(w, http.StatusForbidden, "not a member of this organization")
	default:
		slog.ErrorContext(r.Context(), "authentication failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) respondOauthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, oauth.ErrAppNotFound):
		respondError(w, http.StatusNotFound, "app not found")
	case errors.Is(err, oauth.ErrAppNotRegistered):
		respondError(w, http.StatusForbidden, "app not registered to organization")
	case errors.Is(err, oauth.ErrInvalidRedirectURI):
		respondError(w, http.StatusBadRequest, "invalid redirect_uri")
	case errors.Is(err, oauth.ErrCodeNotFound):
		respondError(w, http.StatusBadRequest, "invalid code")
	case errors.Is(err, oauth.ErrCodeExpired):
		respondError(w, http.StatusBadRequest, "code expired")
	case errors.Is(err, oauth.ErrInvalidClient):
		respondError(w, http.StatusUnauthorized, "invalid client")
	default:
		slog.ErrorContext(r.Context(), "oauth operation failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) countLogin(r *http.Request, outcome string) {
	h.counters.LoginAttempts.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (h *Handler) countExchange(r *http.Request, outcome string) {
	h.counters.CodesExchanged.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

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

	"github.com/go-chi/chi/v5"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/identity"
	"github.com/yaasproject/yaas/internal/oauth"
	"github.com/yaasproject/yaas/internal/observability/logger"
	"github.com/yaasproject/yaas/internal/org"
)

type createOrgRequest struct {
	Name string `json:"name"`
}

type orgResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id,omitempty"`
}

// CreateOrg creates a new organization owned by the caller
func (h *Handler) CreateOrg(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r.Context())
	if !actor.Can(authz.PermOrgsCreate) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orgService.Create(r.Context(), req.Name, actor.User.ID)
	if err != nil {
		h.respondOrgError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, orgResponse{ID: o.ID, Name: o.Name, OwnerID: o.OwnerID})
}

type addMemberRequest struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	Status string   `json:"status"`
}

// AddMember grants a user membership in the caller's org
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	actor := GetActor(r.Context())
	if !h.canManageMembers(actor, orgID) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.orgService.AddMember(r.Context(), orgID, req.UserID, req.Roles, req.Status)
	if err != nil {
		h.respondOrgError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"org_id":  m.OrgID,
		"user_id": m.UserID,
		"roles":   authz.Strings(m.Roles),
		"status":  string(m.Status),
	})
}

type updateRolesRequest struct {
	Roles []string `json:"roles"`
}

// UpdateMemberRoles replaces a member's role set
func (h *Handler) UpdateMemberRoles(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")
	actor := GetActor(r.Context())
	if !h.canManageMembers(actor, orgID) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req updateRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orgService.UpdateMemberRoles(r.Context(), orgID, userID, req.Roles); err != nil {
		h.respondOrgError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember drops a member from the org
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	userID := chi.URLParam(r, "userID")
	actor := GetActor(r.Context())
	if !h.canManageMembers(actor, orgID) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := h.orgService.RemoveMember(r.Context(), orgID, userID); err != nil {
		h.respondOrgError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type registerAppRequest struct {
	Name        string `json:"name"`
	RedirectURI string `json:"redirect_uri"`
}

type registerAppResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// RegisterApp registers an OAuth app to an org. The generated client secret
// is returned exactly once, in this response.
func (h *Handler) RegisterApp(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	actor := GetActor(r.Context())
	if actor == nil || !actor.Can(authz.PermAppsCreate) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req registerAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app := &oauth.App{Name: req.Name, RedirectURI: req.RedirectURI}
	if err := h.oauthService.RegisterApp(r.Context(), orgID, app); err != nil {
		slog.ErrorContext(r.Context(), "app registration failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, registerAppResponse{
		ID:           app.ID,
		Name:         app.Name,
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURI:  app.RedirectURI,
	})
}

// canManageMembers allows superusers anywhere, and members.manage holders
// inside their own org only.
func (h *Handler) canManageMembers(actor *identity.Actor, orgID string) bool {
	if actor == nil {
		return false
	}
	if actor.IsSuperuser() {
		return true
	}
	return actor.OrgID == orgID && actor.Can(authz.PermMembersManage)
}

func (h *Handler) respondOrgError(w http.ResponseWriter, r *http.Request, err error) {
	var rolesErr *authz.RolesError
	switch {
	case errors.As(err, &rolesErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":         "invalid roles",
			"invalid_roles": rolesErr.Invalid,
		})
	case errors.Is(err, authz.ErrStatusInvalid):
		respondError(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, org.ErrNameRequired):
		respondError(w, http.StatusBadRequest, "organization name is required")
	case errors.Is(err, org.ErrOrgNotFound):
		respondError(w, http.StatusNotFound, "organization not found")
	case errors.Is(err, org.ErrMembershipNotFound):
		respondError(w, http.StatusNotFound, "membership not found")
	case errors.Is(err, org.ErrMemberExists):
		respondError(w, http.StatusConflict, "user is already a member")
	default:
		slog.ErrorContext(r.Context(), "org operation failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

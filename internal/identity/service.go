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

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/id"
	"github.com/yaasproject/yaas/internal/org"
	"github.com/yaasproject/yaas/internal/password"
	"github.com/yaasproject/yaas/internal/token"
)

// Scope values carried in bearer tokens. ScopeAuth alone marks a session
// that still has to pick an organization.
const (
	ScopeAuth = "auth"
	ScopeOrg  = "org"

	scopeFull = ScopeAuth + " " + ScopeOrg
)

// Service implements the credential verification flow.
type Service struct {
	users   UserRepository
	orgs    org.Repository
	members org.MembershipRepository
	hasher  *password.Hasher
	secret  string
	audit   audit.Logger
}

// NewService creates a new identity service.
func NewService(users UserRepository, orgs org.Repository, members org.MembershipRepository, hasher *password.Hasher, secret string, auditLogger audit.Logger) *Service {
	return &Service{
		users:   users,
		orgs:    orgs,
		members: members,
		hasher:  hasher,
		secret:  secret,
		audit:   auditLogger,
	}
}

// OrgOption is one organization a multi-org user may select after login.
type OrgOption struct {
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

// AuthResult is the outcome of a successful login. When the user belongs to
// more than one active org the bearer token carries only the auth scope and
// Orgs lists the choices for a follow-up SelectOrg call.
type AuthResult struct {
	User              *User
	Token             string
	CsrfToken         string
	NeedsOrgSelection bool
	Orgs              []OrgOption
}

// Authenticate verifies an email and password and issues tokens. Unknown
// email and wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, pw string) (*AuthResult, error) {
	if err := validateCredentials(email, pw); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.auditLoginFailed(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active() {
		s.auditLoginFailed(ctx, email, "inactive account")
		return nil, ErrInactiveAccount
	}

	stored, err := s.users.GetPassword(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrCredentialsNotConfigured) {
			s.auditLoginFailed(ctx, email, "no password configured")
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(pw, stored.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.auditLoginFailed(ctx, email, "wrong password")
		return nil, ErrInvalidCredentials
	}

	memberships, err := s.members.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	var active []*org.Membership
	for _, m := range memberships {
		if m.Active() {
			active = append(active, m)
		}
	}

	result := &AuthResult{User: user}
	switch len(active) {
	case 1:
		result.Token, err = token.IssueBearer(token.Actor{
			ID:    user.ID,
			OrgID: active[0].OrgID,
			Scope: scopeFull,
		}, s.secret)
	default:
		// Zero or several orgs: a restricted token that can only select
		// an org or inspect itself.
		result.NeedsOrgSelection = true
		for _, m := range active {
			result.Orgs = append(result.Orgs, OrgOption{OrgID: m.OrgID, Name: m.OrgName})
		}
		result.Token, err = token.IssueBearer(token.Actor{
			ID:    user.ID,
			Scope: ScopeAuth,
		}, s.secret)
	}
	if err != nil {
		return nil, fmt.Errorf("issue bearer token: %w", err)
	}

	result.CsrfToken, err = token.IssueCsrf(user.ID, s.secret)
	if err != nil {
		return nil, fmt.Errorf("issue csrf token: %w", err)
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  user.ID,
		Resource: user.ID,
		Metadata: map[string]any{audit.AttrEmail: email},
	})

	return result, nil
}

// SelectOrg upgrades an auth-scoped token to a full token bound to one of
// the caller's active memberships.
func (s *Service) SelectOrg(ctx context.Context, bearer, orgID string) (*AuthResult, error) {
	tok, err := token.VerifyBearer(bearer, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, tok.ID)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, ErrInactiveAccount
	}

	m, err := s.members.Get(ctx, orgID, user.ID)
	if err != nil {
		return nil, err
	}
	if !m.Active() {
		return nil, org.ErrMembershipNotFound
	}

	result := &AuthResult{User: user}
	result.Token, err = token.IssueBearer(token.Actor{
		ID:    user.ID,
		OrgID: orgID,
		Scope: scopeFull,
	}, s.secret)
	if err != nil {
		return nil, fmt.Errorf("issue bearer token: %w", err)
	}
	result.CsrfToken, err = token.IssueCsrf(user.ID, s.secret)
	if err != nil {
		return nil, fmt.Errorf("issue csrf token: %w", err)
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeTokenIssued,
		OrgID:    orgID,
		ActorID:  user.ID,
		Resource: user.ID,
		Metadata: map[string]any{audit.AttrScope: scopeFull},
	})

	return result, nil
}

// AuthenticateToken verifies a bearer token and resolves the actor behind
// it against current storage. A token whose user or org has gone away is
// rejected even if its signature is still valid.
func (s *Service) AuthenticateToken(ctx context.Context, bearer string) (*Actor, error) {
	tok, err := token.VerifyBearer(bearer, s.secret)
	if err != nil {
		s.audit.Log(ctx, audit.Event{
			Type:     audit.TypeTokenRejected,
			Metadata: map[string]any{audit.AttrReason: err.Error()},
		})
		return nil, err
	}

	user, err := s.users.GetByID(ctx, tok.ID)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, ErrInactiveAccount
	}

	actor := &Actor{User: user, OrgID: tok.OrgID, Scope: tok.Scope}
	if tok.OrgID != "" {
		if _, err := s.orgs.GetByID(ctx, tok.OrgID); err != nil {
			if errors.Is(err, org.ErrOrgNotFound) {
				return nil, ErrInvalidClient
			}
			return nil, err
		}
		m, err := s.members.Get(ctx, tok.OrgID, user.ID)
		if err != nil {
			if errors.Is(err, org.ErrMembershipNotFound) {
				return nil, ErrInvalidClient
			}
			return nil, err
		}
		if !m.Active() {
			return nil, ErrInvalidClient
		}
		actor.Roles = m.Roles
		actor.Permissions = authz.RolesPermissions(m.Roles)
	}

	return actor, nil
}

// CreateUser provisions a new account with a password.
func (s *Service) CreateUser(ctx context.Context, email, name, pw string) (*User, error) {
	if err := validateCredentials(email, pw); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:        id.New(id.PrefixUser),
		Email:     email,
		Name:      name,
		Status:    authz.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		Resource: user.ID,
		Metadata: map[string]any{audit.AttrEmail: email},
	})

	return user, nil
}

// SetPassword replaces a user's password hash.
func (s *Service) SetPassword(ctx context.Context, userID, pw string) error {
	if len(pw) < minPasswordLength || len(pw) > maxPasswordLength {
		return &ValidationError{Violations: []string{"password length out of range"}}
	}
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypePasswordSet,
		ActorID:  userID,
		Resource: userID,
	})
	return nil
}

func (s *Service) auditLoginFailed(ctx context.Context, email, reason string) {
	s.audit.Log(ctx, audit.Event{
		Type: audit.TypeLoginFailed,
		Metadata: map[string]any{
			audit.AttrEmail:  email,
			audit.AttrReason: reason,
		},
	})
}

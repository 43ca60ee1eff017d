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

package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/id"
)

func generateClientSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DefaultCodeLifetime is how long an issued authorization code stays
// exchangeable.
const DefaultCodeLifetime = 5 * time.Minute

// Service implements the authorization-code flow.
type Service struct {
	apps  AppRepository
	codes CodeRepository
	audit audit.Logger

	codeLifetime time.Duration
}

// NewService creates a new oauth service. A non-positive codeLifetime falls
// back to DefaultCodeLifetime.
func NewService(apps AppRepository, codes CodeRepository, auditLogger audit.Logger, codeLifetime time.Duration) *Service {
	if codeLifetime <= 0 {
		codeLifetime = DefaultCodeLifetime
	}
	return &Service{
		apps:         apps,
		codes:        codes,
		audit:        auditLogger,
		codeLifetime: codeLifetime,
	}
}

// IssueRequest carries the parameters of an authorization request made by an
// authenticated user acting in an organization.
type IssueRequest struct {
	ClientID    string
	OrgID       string
	UserID      string
	RedirectURI string
	Scope       string
	State       string
}

// Issue creates a single-use authorization code for the requesting user.
// The state value is stored verbatim and echoed back to the caller.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*AuthorizationCode, error) {
	app, err := s.apps.GetByClientID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	registered, err := s.apps.RegisteredToOrg(ctx, req.OrgID, app.ID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrAppNotRegistered
	}

	if !IsRedirectAllowed(app.RedirectURI, req.RedirectURI) {
		return nil, ErrInvalidRedirectURI
	}

	now := time.Now()
	code := &AuthorizationCode{
		Code:        id.New(id.PrefixOauthCode),
		State:       req.State,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		AppID:       app.ID,
		OrgID:       req.OrgID,
		UserID:      req.UserID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeLifetime),
	}

	if err := s.codes.Create(ctx, code); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeCodeIssued,
		OrgID:    req.OrgID,
		ActorID:  req.UserID,
		Resource: code.Code,
		Metadata: map[string]any{
			audit.AttrAppID: app.ID,
			audit.AttrScope: req.Scope,
		},
	})

	return code, nil
}

// ExchangeRequest carries the parameters an app presents when trading an
// authorization code for the grant it represents.
type ExchangeRequest struct {
	Code         string
	State        string
	RedirectURI  string
	ClientID     string
	ClientSecret string
}

// Exchange redeems an authorization code. The state, redirect URI and client
// credentials must match those recorded at issue time. The code is consumed
// atomically: a second exchange of the same code fails with ErrCodeNotFound
// even under concurrent callers.
func (s *Service) Exchange(ctx context.Context, req ExchangeRequest) (*AuthorizationCode, error) {
	// Codes that cannot have been minted here never reach the ledger.
	if !id.Valid(req.Code) {
		return nil, ErrCodeNotFound
	}

	code, err := s.codes.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	if code.IsExpired() {
		s.auditReject(ctx, code, "code expired")
		return nil, ErrCodeExpired
	}

	if code.State != req.State || code.RedirectURI != req.RedirectURI {
		s.auditReject(ctx, code, "exchange parameters mismatch")
		return nil, ErrInvalidClient
	}

	app, err := s.apps.GetByID(ctx, code.AppID)
	if err != nil {
		return nil, err
	}
	if app.ClientID != req.ClientID ||
		subtle.ConstantTimeCompare([]byte(app.ClientSecret), []byte(req.ClientSecret)) != 1 {
		s.auditReject(ctx, code, "client credentials mismatch")
		return nil, ErrInvalidClient
	}

	consumed, err := s.codes.Consume(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeCodeExchanged,
		OrgID:    consumed.OrgID,
		ActorID:  consumed.UserID,
		Resource: consumed.Code,
		Metadata: map[string]any{
			audit.AttrAppID: consumed.AppID,
			audit.AttrScope: consumed.Scope,
		},
	})

	return consumed, nil
}

// Revoke discards an authorization code. Revoking an unknown, malformed or
// already exchanged code succeeds.
func (s *Service) Revoke(ctx context.Context, code string) error {
	if !id.Valid(code) {
		return nil
	}
	if err := s.codes.Delete(ctx, code); err != nil {
		return err
	}
	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeCodeRevoked,
		Resource: code,
	})
	return nil
}

// RegisterApp stores a new app with a generated id and links it to the
// organization registering it. Missing client credentials are generated.
func (s *Service) RegisterApp(ctx context.Context, orgID string, app *App) error {
	if app.ID == "" {
		app.ID = id.New(id.PrefixApp)
	}
	if app.ClientID == "" {
		app.ClientID = id.New(id.PrefixApp)
	}
	if app.ClientSecret == "" {
		secret, err := generateClientSecret()
		if err != nil {
			return fmt.Errorf("generate client secret: %w", err)
		}
		app.ClientSecret = secret
	}
	now := time.Now()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if err := s.apps.Create(ctx, app); err != nil {
		return err
	}
	return s.apps.LinkToOrg(ctx, orgID, app.ID)
}

func (s *Service) auditReject(ctx context.Context, code *AuthorizationCode, reason string) {
	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeTokenRejected,
		OrgID:    code.OrgID,
		ActorID:  code.UserID,
		Resource: code.Code,
		Metadata: map[string]any{audit.AttrReason: reason},
	})
}

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
	"time"
)

// App is a registered client application. The redirect URI stored here is the
// trust anchor for the authorization-code flow.
type App struct {
	ID           string
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthorizationCode is a short-lived, single-use grant binding a user, an
// organization and an app together. The opaque code string is the primary key.
type AuthorizationCode struct {
	Code        string
	State       string
	RedirectURI string
	Scope       string
	AppID       string
	OrgID       string
	UserID      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// IsExpired reports whether the code's lifetime has elapsed.
func (c *AuthorizationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// AppRepository provides access to registered apps.
type AppRepository interface {
	Create(ctx context.Context, app *App) error
	GetByID(ctx context.Context, id string) (*App, error)
	GetByClientID(ctx context.Context, clientID string) (*App, error)
	// RegisteredToOrg reports whether the app is linked to the organization.
	RegisteredToOrg(ctx context.Context, orgID, appID string) (bool, error)
	// LinkToOrg registers the app inside an organization. Linking twice is
	// not an error.
	LinkToOrg(ctx context.Context, orgID, appID string) error
	Delete(ctx context.Context, id string) error
}

// CodeRepository provides access to authorization codes.
type CodeRepository interface {
	Create(ctx context.Context, code *AuthorizationCode) error
	GetByCode(ctx context.Context, code string) (*AuthorizationCode, error)
	// Consume atomically removes the code and returns it. At most one caller
	// observes a given code; concurrent consumers get ErrCodeNotFound.
	Consume(ctx context.Context, code string) (*AuthorizationCode, error)
	// Delete removes the code if present. Deleting an absent code is not an
	// error.
	Delete(ctx context.Context, code string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

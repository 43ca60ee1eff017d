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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/id"
	"github.com/yaasproject/yaas/internal/identity"
	"github.com/yaasproject/yaas/internal/oauth"
	"github.com/yaasproject/yaas/internal/org"
)

// TestPurpose: Validates that an authorization code can be consumed exactly
// once against a real database, so a stolen code replayed after the
// legitimate exchange is rejected.
// Scope: Database Integration Test
// Security: Single-use Authorization Codes (CWE-294)
// Expected: The first Consume returns the code; the second returns
// ErrCodeNotFound.
func TestCodeRepository_ConsumeSingleUse(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "yaas",
		Password:     "yaas_dev_password",
		Database:     "yaas",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, InitialSchema); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := NewUserRepository(db)
	orgs := NewOrgRepository(db)
	apps := NewAppRepository(db)
	codes := NewCodeRepository(db)

	now := time.Now()
	user := &identity.User{
		ID:        id.New(id.PrefixUser),
		Email:     id.New(id.PrefixUser) + "@example.com",
		Status:    authz.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	defer users.Delete(ctx, user.ID)

	orgID := id.New(id.PrefixOrg)
	o := &org.Org{ID: orgID, Name: "integration", OwnerID: user.ID, CreatedAt: now, UpdatedAt: now}
	if err := orgs.Create(ctx, o); err != nil {
		t.Fatalf("create org: %v", err)
	}
	defer orgs.Delete(ctx, orgID)

	app := &oauth.App{
		ID:           id.New(id.PrefixApp),
		Name:         "integration",
		ClientID:     id.New(id.PrefixApp),
		ClientSecret: "secret",
		RedirectURI:  "https://app.example.com/cb",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer apps.Delete(ctx, app.ID)

	code := &oauth.AuthorizationCode{
		Code:        id.New(id.PrefixOauthCode),
		RedirectURI: "https://app.example.com/cb",
		Scope:       "auth org",
		AppID:       app.ID,
		OrgID:       orgID,
		UserID:      user.ID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(5 * time.Minute),
	}
	if err := codes.Create(ctx, code); err != nil {
		t.Fatalf("create code: %v", err)
	}

	consumed, err := codes.Consume(ctx, code.Code)
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if consumed.UserID != user.ID {
		t.Errorf("consumed code user = %q", consumed.UserID)
	}

	if _, err := codes.Consume(ctx, code.Code); !errors.Is(err, oauth.ErrCodeNotFound) {
		t.Errorf("second consume: want ErrCodeNotFound, got %v", err)
	}
}

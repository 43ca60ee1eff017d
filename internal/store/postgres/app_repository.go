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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yaasproject/yaas/internal/oauth"
)

// AppRepository implements oauth.AppRepository
type AppRepository struct {
	db *DB
}

// NewAppRepository creates a new app repository
func NewAppRepository(db *DB) *AppRepository {
	return &AppRepository{db: db}
}

// Create inserts a new app
func (r *AppRepository) Create(ctx context.Context, app *oauth.App) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO apps (id, name, client_id, client_secret, redirect_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, app.ID, app.Name, app.ClientID, app.ClientSecret, app.RedirectURI, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert app: %w", err)
	}
	return nil
}

// GetByID retrieves an app by id
func (r *AppRepository) GetByID(ctx context.Context, id string) (*oauth.App, error) {
	return r.get(ctx, `
		SELECT id, name, client_id, client_secret, redirect_uri, created_at, updated_at
		FROM apps WHERE id = $1
	`, id)
}

// GetByClientID retrieves an app by its public client id
func (r *AppRepository) GetByClientID(ctx context.Context, clientID string) (*oauth.App, error) {
	return r.get(ctx, `
		SELECT id, name, client_id, client_secret, redirect_uri, created_at, updated_at
		FROM apps WHERE client_id = $1
	`, clientID)
}

func (r *AppRepository) get(ctx context.Context, query, arg string) (*oauth.App, error) {
	var app oauth.App
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(
		&app.ID, &app.Name, &app.ClientID, &app.ClientSecret, &app.RedirectURI,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oauth.ErrAppNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return &app, nil
}

// RegisteredToOrg reports whether the app is linked to the org
func (r *AppRepository) RegisteredToOrg(ctx context.Context, orgID, appID string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM org_apps WHERE org_id = $1 AND app_id = $2)
	`, orgID, appID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check org app link: %w", err)
	}
	return exists, nil
}

// LinkToOrg registers the app inside an organization
func (r *AppRepository) LinkToOrg(ctx context.Context, orgID, appID string) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO org_apps (org_id, app_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, app_id) DO NOTHING
	`, orgID, appID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to link app to org: %w", err)
	}
	return nil
}

// Delete removes an app and its org links
func (r *AppRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM apps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}
	return nil
}

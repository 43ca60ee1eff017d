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

	"github.com/jackc/pgx/v5"
	"github.com/yaasproject/yaas/internal/oauth"
)

// CodeRepository implements oauth.CodeRepository
type CodeRepository struct {
	db *DB
}

// NewCodeRepository creates a new authorization code repository
func NewCodeRepository(db *DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// Create inserts a new authorization code
func (r *CodeRepository) Create(ctx context.Context, code *oauth.AuthorizationCode) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO oauth_codes (
			code, state, redirect_uri, scope,
			app_id, org_id, user_id, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		code.Code, code.State, code.RedirectURI, code.Scope,
		code.AppID, code.OrgID, code.UserID, code.CreatedAt, code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create authorization code: %w", err)
	}
	return nil
}

// GetByCode retrieves an authorization code
func (r *CodeRepository) GetByCode(ctx context.Context, codeStr string) (*oauth.AuthorizationCode, error) {
	var code oauth.AuthorizationCode
	err := r.db.pool.QueryRow(ctx, `
		SELECT code, state, redirect_uri, scope,
			app_id, org_id, user_id, created_at, expires_at
		FROM oauth_codes WHERE code = $1
	`, codeStr).Scan(
		&code.Code, &code.State, &code.RedirectURI, &code.Scope,
		&code.AppID, &code.OrgID, &code.UserID, &code.CreatedAt, &code.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oauth.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}
	return &code, nil
}

// Consume removes the code and returns it in a single statement. Of any
// number of concurrent consumers exactly one sees the row.
func (r *CodeRepository) Consume(ctx context.Context, codeStr string) (*oauth.AuthorizationCode, error) {
	var code oauth.AuthorizationCode
	err := r.db.pool.QueryRow(ctx, `
		DELETE FROM oauth_codes WHERE code = $1
		RETURNING code, state, redirect_uri, scope,
			app_id, org_id, user_id, created_at, expires_at
	`, codeStr).Scan(
		&code.Code, &code.State, &code.RedirectURI, &code.Scope,
		&code.AppID, &code.OrgID, &code.UserID, &code.CreatedAt, &code.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oauth.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}
	return &code, nil
}

// Delete removes a code; deleting an absent code succeeds
func (r *CodeRepository) Delete(ctx context.Context, codeStr string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM oauth_codes WHERE code = $1`, codeStr)
	if err != nil {
		return fmt.Errorf("failed to delete authorization code: %w", err)
	}
	return nil
}

// DeleteExpired sweeps codes past their expiry and returns how many went
func (r *CodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM oauth_codes WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

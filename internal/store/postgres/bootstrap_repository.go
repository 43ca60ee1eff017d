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
	"fmt"
	"time"

	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/id"
	"github.com/yaasproject/yaas/internal/identity"
)

// BootstrapRepository implements identity.BootstrapStore
type BootstrapRepository struct {
	db *DB
}

// NewBootstrapRepository creates a new bootstrap repository
func NewBootstrapRepository(db *DB) *BootstrapRepository {
	return &BootstrapRepository{db: db}
}

// SuperuserExists reports whether any superuser has been created
func (r *BootstrapRepository) SuperuserExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM superusers)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check superuser set: %w", err)
	}
	return exists, nil
}

// CreateSuperuser creates the first superuser, its password, the bootstrap
// org and the Superuser membership in one transaction. If any insert fails
// nothing is left behind.
func (r *BootstrapRepository) CreateSuperuser(ctx context.Context, user *identity.User, passwordHash, orgName string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.Name, string(user.Status), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert superuser: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO passwords (user_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
	`, user.ID, passwordHash, now)
	if err != nil {
		return fmt.Errorf("failed to insert superuser password: %w", err)
	}

	orgID := id.New(id.PrefixOrg)
	_, err = tx.Exec(ctx, `
		INSERT INTO orgs (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, orgID, orgName, user.ID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert bootstrap org: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO org_members (org_id, user_id, roles, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, orgID, user.ID, []string{string(authz.RoleSuperuser)}, string(authz.StatusActive), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert superuser membership: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO superusers (user_id, created_at) VALUES ($1, $2)
	`, user.ID, now)
	if err != nil {
		return fmt.Errorf("failed to insert superuser record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit superuser creation: %w", err)
	}
	return nil
}

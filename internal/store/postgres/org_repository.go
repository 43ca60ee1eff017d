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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/org"
)

// OrgRepository implements org.Repository
type OrgRepository struct {
	db *DB
}

// NewOrgRepository creates a new org repository
func NewOrgRepository(db *DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// Create inserts a new organization
func (r *OrgRepository) Create(ctx context.Context, o *org.Org) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO orgs (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.Name, nullable(o.OwnerID), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert org: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by id
func (r *OrgRepository) GetByID(ctx context.Context, id string) (*org.Org, error) {
	var o org.Org
	var ownerID *string
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM orgs WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &ownerID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get org: %w", err)
	}
	if ownerID != nil {
		o.OwnerID = *ownerID
	}
	return &o, nil
}

// Delete removes an organization
func (r *OrgRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM orgs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete org: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MembershipRepository implements org.MembershipRepository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add inserts a membership
func (r *MembershipRepository) Add(ctx context.Context, m *org.Membership) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO org_members (org_id, user_id, roles, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.OrgID, m.UserID, authz.Strings(m.Roles), string(m.Status), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return org.ErrMemberExists
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// Get retrieves one membership
func (r *MembershipRepository) Get(ctx context.Context, orgID, userID string) (*org.Membership, error) {
	var m org.Membership
	var roles []string
	err := r.db.pool.QueryRow(ctx, `
		SELECT m.org_id, m.user_id, o.name, m.roles, m.status, m.created_at, m.updated_at
		FROM org_members m
		JOIN orgs o ON o.id = m.org_id
		WHERE m.org_id = $1 AND m.user_id = $2
	`, orgID, userID).Scan(
		&m.OrgID, &m.UserID, &m.OrgName, &roles, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	m.Roles, err = authz.ToRoles(roles)
	if err != nil {
		return nil, fmt.Errorf("stored roles are corrupt: %w", err)
	}
	return &m, nil
}

// ListForUser returns every membership of the user with the org name joined in
func (r *MembershipRepository) ListForUser(ctx context.Context, userID string) ([]*org.Membership, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT m.org_id, m.user_id, o.name, m.roles, m.status, m.created_at, m.updated_at
		FROM org_members m
		JOIN orgs o ON o.id = m.org_id
		WHERE m.user_id = $1
		ORDER BY m.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var out []*org.Membership
	for rows.Next() {
		var m org.Membership
		var roles []string
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.OrgName, &roles, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if m.Roles, err = authz.ToRoles(roles); err != nil {
			return nil, fmt.Errorf("stored roles are corrupt: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// UpdateRoles replaces the member's role set
func (r *MembershipRepository) UpdateRoles(ctx context.Context, orgID, userID string, roles []authz.Role) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE org_members SET roles = $3, updated_at = $4
		WHERE org_id = $1 AND user_id = $2
	`, orgID, userID, authz.Strings(roles), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return org.ErrMembershipNotFound
	}
	return nil
}

// UpdateStatus activates or deactivates a membership
func (r *MembershipRepository) UpdateStatus(ctx context.Context, orgID, userID string, status authz.Status) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE org_members SET status = $3, updated_at = $4
		WHERE org_id = $1 AND user_id = $2
	`, orgID, userID, string(status), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return org.ErrMembershipNotFound
	}
	return nil
}

// Remove drops a membership
func (r *MembershipRepository) Remove(ctx context.Context, orgID, userID string) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM org_members WHERE org_id = $1 AND user_id = $2
	`, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}

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

// Package org holds organizations and the memberships that grant users roles
// inside them.
package org

import (
	"context"
	"errors"
	"time"

	"github.com/yaasproject/yaas/internal/authz"
)

var (
	ErrOrgNotFound        = errors.New("organization not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMemberExists       = errors.New("user is already a member")
	ErrNameRequired       = errors.New("organization name is required")
)

// Org is a tenant boundary. Every issued token is scoped to exactly one org.
type Org struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links a user to an org with a set of roles. Roles are always a
// subset of the closed role registry; status gates whether the membership
// counts during authentication.
type Membership struct {
	OrgID     string
	UserID    string
	OrgName   string
	Roles     []authz.Role
	Status    authz.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the membership participates in authentication.
func (m *Membership) Active() bool {
	return m.Status == authz.StatusActive
}

// Repository provides access to organizations.
type Repository interface {
	Create(ctx context.Context, o *Org) error
	GetByID(ctx context.Context, id string) (*Org, error)
	Delete(ctx context.Context, id string) error
}

// MembershipRepository provides access to org memberships.
type MembershipRepository interface {
	Add(ctx context.Context, m *Membership) error
	Get(ctx context.Context, orgID, userID string) (*Membership, error)
	// ListForUser returns the user's memberships with OrgName populated.
	ListForUser(ctx context.Context, userID string) ([]*Membership, error)
	UpdateRoles(ctx context.Context, orgID, userID string, roles []authz.Role) error
	UpdateStatus(ctx context.Context, orgID, userID string, status authz.Status) error
	Remove(ctx context.Context, orgID, userID string) error
}

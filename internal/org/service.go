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

package org

import (
	"context"
	"time"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/id"
)

// Service manages organizations and memberships.
type Service struct {
	orgs    Repository
	members MembershipRepository
	audit   audit.Logger
}

// NewService creates a new org service.
func NewService(orgs Repository, members MembershipRepository, auditLogger audit.Logger) *Service {
	return &Service{orgs: orgs, members: members, audit: auditLogger}
}

// Create stores a new organization owned by ownerID.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Org, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now()
	o := &Org{
		ID:        id.New(id.PrefixOrg),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get retrieves an organization by id.
func (s *Service) Get(ctx context.Context, orgID string) (*Org, error) {
	return s.orgs.GetByID(ctx, orgID)
}

// AddMember grants a user membership in an org. Every role must come from
// the closed registry and the status must be a known value; violations are
// reported in full, not just the first.
func (s *Service) AddMember(ctx context.Context, orgID, userID string, roles []string, status string) (*Membership, error) {
	parsed, err := authz.ToRoles(roles)
	if err != nil {
		return nil, err
	}
	st, err := authz.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	now := time.Now()
	m := &Membership{
		OrgID:     orgID,
		UserID:    userID,
		Roles:     parsed,
		Status:    st,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.members.Add(ctx, m); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeMemberRolesChange,
		OrgID:    orgID,
		ActorID:  userID,
		Resource: userID,
		Metadata: map[string]any{"roles": authz.Strings(parsed), "status": string(st)},
	})

	return m, nil
}

// UpdateMemberRoles replaces a member's role set.
func (s *Service) UpdateMemberRoles(ctx context.Context, orgID, userID string, roles []string) error {
	parsed, err := authz.ToRoles(roles)
	if err != nil {
		return err
	}
	if err := s.members.UpdateRoles(ctx, orgID, userID, parsed); err != nil {
		return err
	}

	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeMemberRolesChange,
		OrgID:    orgID,
		Resource: userID,
		Metadata: map[string]any{"roles": authz.Strings(parsed)},
	})
	return nil
}

// SetMemberStatus activates or deactivates a membership.
func (s *Service) SetMemberStatus(ctx context.Context, orgID, userID string, status string) error {
	st, err := authz.ParseStatus(status)
	if err != nil {
		return err
	}
	return s.members.UpdateStatus(ctx, orgID, userID, st)
}

// RemoveMember drops a user's membership in an org.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	return s.members.Remove(ctx, orgID, userID)
}

// MembershipsOf lists a user's memberships across all orgs.
func (s *Service) MembershipsOf(ctx context.Context, userID string) ([]*Membership, error) {
	return s.members.ListForUser(ctx, userID)
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/authz"
)

type mockOrgRepo struct {
	orgs map[string]*Org
}

func (m *mockOrgRepo) Create(ctx context.Context, o *Org) error {
	m.orgs[o.ID] = o
	return nil
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*Org, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrOrgNotFound
	}
	return o, nil
}

func (m *mockOrgRepo) Delete(ctx context.Context, id string) error {
	delete(m.orgs, id)
	return nil
}

type mockMemberRepo struct {
	members map[string]*Membership // orgID + "/" + userID
}

func (m *mockMemberRepo) key(orgID, userID string) string { return orgID + "/" + userID }

func (m *mockMemberRepo) Add(ctx context.Context, mem *Membership) error {
	k := m.key(mem.OrgID, mem.UserID)
	if _, ok := m.members[k]; ok {
		return ErrMemberExists
	}
	m.members[k] = mem
	return nil
}

func (m *mockMemberRepo) Get(ctx context.Context, orgID, userID string) (*Membership, error) {
	mem, ok := m.members[m.key(orgID, userID)]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return mem, nil
}

func (m *mockMemberRepo) ListForUser(ctx context.Context, userID string) ([]*Membership, error) {
	var out []*Membership
	for _, mem := range m.members {
		if mem.UserID == userID {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockMemberRepo) UpdateRoles(ctx context.Context, orgID, userID string, roles []authz.Role) error {
	mem, ok := m.members[m.key(orgID, userID)]
	if !ok {
		return ErrMembershipNotFound
	}
	mem.Roles = roles
	return nil
}

func (m *mockMemberRepo) UpdateStatus(ctx context.Context, orgID, userID string, status authz.Status) error {
	mem, ok := m.members[m.key(orgID, userID)]
	if !ok {
		return ErrMembershipNotFound
	}
	mem.Status = status
	return nil
}

func (m *mockMemberRepo) Remove(ctx context.Context, orgID, userID string) error {
	delete(m.members, m.key(orgID, userID))
	return nil
}

func newOrgTestService() (*Service, *mockOrgRepo, *mockMemberRepo) {
	orgs := &mockOrgRepo{orgs: make(map[string]*Org)}
	members := &mockMemberRepo{members: make(map[string]*Membership)}
	return NewService(orgs, members, audit.NewSlogLogger()), orgs, members
}

func TestCreateOrg(t *testing.T) {
	svc, _, _ := newOrgTestService()

	o, err := svc.Create(context.Background(), "Acme", "usr_0191b4f8a7d2734bb08e5c2d9a1f6e3c")
	require.NoError(t, err)
	assert.Len(t, o.ID, 36)
	assert.Equal(t, "org_", o.ID[:4])
	assert.Equal(t, "Acme", o.Name)

	_, err = svc.Create(context.Background(), "", "usr_0191b4f8a7d2734bb08e5c2d9a1f6e3c")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestAddMemberValidatesRolesAndStatus(t *testing.T) {
	svc, orgs, _ := newOrgTestService()
	orgs.orgs["org-1"] = &Org{ID: "org-1", Name: "Acme"}

	m, err := svc.AddMember(context.Background(), "org-1", "user-1",
		[]string{"OrgAdmin", "OrgViewer"}, "active")
	require.NoError(t, err)
	assert.Equal(t, []authz.Role{authz.RoleOrgAdmin, authz.RoleOrgViewer}, m.Roles)
	assert.True(t, m.Active())

	// Every invalid role is reported, not just the first.
	_, err = svc.AddMember(context.Background(), "org-1", "user-2",
		[]string{"OrgAdmin", "Wizard", "Ghost"}, "active")
	var rolesErr *authz.RolesError
	require.ErrorAs(t, err, &rolesErr)
	assert.Equal(t, []string{"Wizard", "Ghost"}, rolesErr.Invalid)

	_, err = svc.AddMember(context.Background(), "org-1", "user-3",
		[]string{"OrgViewer"}, "suspended")
	assert.ErrorIs(t, err, authz.ErrStatusInvalid)
}

func TestAddMemberUnknownOrg(t *testing.T) {
	svc, _, _ := newOrgTestService()

	_, err := svc.AddMember(context.Background(), "org-missing", "user-1",
		[]string{"OrgViewer"}, "active")
	assert.ErrorIs(t, err, ErrOrgNotFound)
}

func TestUpdateMemberRoles(t *testing.T) {
	svc, orgs, members := newOrgTestService()
	orgs.orgs["org-1"] = &Org{ID: "org-1", Name: "Acme"}
	members.members["org-1/user-1"] = &Membership{
		OrgID:  "org-1",
		UserID: "user-1",
		Roles:  []authz.Role{authz.RoleOrgViewer},
		Status: authz.StatusActive,
	}

	require.NoError(t, svc.UpdateMemberRoles(context.Background(), "org-1", "user-1", []string{"OrgEditor"}))
	assert.Equal(t, []authz.Role{authz.RoleOrgEditor}, members.members["org-1/user-1"].Roles)

	err := svc.UpdateMemberRoles(context.Background(), "org-1", "user-1", []string{"Nope"})
	var rolesErr *authz.RolesError
	assert.ErrorAs(t, err, &rolesErr)

	err = svc.UpdateMemberRoles(context.Background(), "org-1", "user-9", []string{"OrgEditor"})
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestSetMemberStatus(t *testing.T) {
	svc, _, members := newOrgTestService()
	members.members["org-1/user-1"] = &Membership{
		OrgID:  "org-1",
		UserID: "user-1",
		Status: authz.StatusActive,
	}

	require.NoError(t, svc.SetMemberStatus(context.Background(), "org-1", "user-1", "inactive"))
	assert.False(t, members.members["org-1/user-1"].Active())

	err := svc.SetMemberStatus(context.Background(), "org-1", "user-1", "banned")
	assert.ErrorIs(t, err, authz.ErrStatusInvalid)
}

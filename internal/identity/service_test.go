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

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/org"
	"github.com/yaasproject/yaas/internal/password"
	"github.com/yaasproject/yaas/internal/token"
)

const testSecret = "test-secret-key-for-identity"

type mockUserRepo struct {
	users     map[string]*User // by id
	passwords map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User), passwords: make(map[string]string)}
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrUserExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) SetPassword(ctx context.Context, userID, passwordHash string) error {
	m.passwords[userID] = passwordHash
	return nil
}

func (m *mockUserRepo) GetPassword(ctx context.Context, userID string) (*StoredPassword, error) {
	hash, ok := m.passwords[userID]
	if !ok {
		return nil, ErrCredentialsNotConfigured
	}
	return &StoredPassword{UserID: userID, PasswordHash: hash}, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

type mockOrgRepo struct {
	orgs map[string]*org.Org
}

func (m *mockOrgRepo) Create(ctx context.Context, o *org.Org) error {
	m.orgs[o.ID] = o
	return nil
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*org.Org, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, org.ErrOrgNotFound
	}
	return o, nil
}

func (m *mockOrgRepo) Delete(ctx context.Context, id string) error {
	delete(m.orgs, id)
	return nil
}

type mockMemberRepo struct {
	members map[string]*org.Membership
}

func memberKey(orgID, userID string) string { return orgID + "/" + userID }

func (m *mockMemberRepo) Add(ctx context.Context, mem *org.Membership) error {
	m.members[memberKey(mem.OrgID, mem.UserID)] = mem
	return nil
}

func (m *mockMemberRepo) Get(ctx context.Context, orgID, userID string) (*org.Membership, error) {
	mem, ok := m.members[memberKey(orgID, userID)]
	if !ok {
		return nil, org.ErrMembershipNotFound
	}
	return mem, nil
}

func (m *mockMemberRepo) ListForUser(ctx context.Context, userID string) ([]*org.Membership, error) {
	var out []*org.Membership
	for _, mem := range m.members {
		if mem.UserID == userID {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockMemberRepo) UpdateRoles(ctx context.Context, orgID, userID string, roles []authz.Role) error {
	mem, ok := m.members[memberKey(orgID, userID)]
	if !ok {
		return org.ErrMembershipNotFound
	}
	mem.Roles = roles
	return nil
}

func (m *mockMemberRepo) UpdateStatus(ctx context.Context, orgID, userID string, status authz.Status) error {
	mem, ok := m.members[memberKey(orgID, userID)]
	if !ok {
		return org.ErrMembershipNotFound
	}
	mem.Status = status
	return nil
}

func (m *mockMemberRepo) Remove(ctx context.Context, orgID, userID string) error {
	delete(m.members, memberKey(orgID, userID))
	return nil
}

type fixture struct {
	svc     *Service
	users   *mockUserRepo
	orgs    *mockOrgRepo
	members *mockMemberRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   newMockUserRepo(),
		orgs:    &mockOrgRepo{orgs: make(map[string]*org.Org)},
		members: &mockMemberRepo{members: make(map[string]*org.Membership)},
	}
	// Low-cost hashing parameters keep the test fast.
	hasher := password.NewHasher(8*1024, 1, 1, 16, 32)
	f.svc = NewService(f.users, f.orgs, f.members, hasher, testSecret, audit.NewSlogLogger())
	return f
}

// addUser provisions an active user with a password and returns it.
func (f *fixture) addUser(t *testing.T, email, pw string) *User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), email, "Test User", pw)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func (f *fixture) addMembership(userID, orgID, orgName string, status authz.Status, roles ...authz.Role) {
	f.orgs.orgs[orgID] = &org.Org{ID: orgID, Name: orgName}
	f.members.members[memberKey(orgID, userID)] = &org.Membership{
		OrgID:   orgID,
		UserID:  userID,
		OrgName: orgName,
		Roles:   roles,
		Status:  status,
	}
}

func TestAuthenticateSingleOrg(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgAdmin)

	res, err := f.svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if res.NeedsOrgSelection {
		t.Error("single-org user should not need org selection")
	}

	actor, err := token.VerifyBearer(res.Token, testSecret)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if actor.ID != u.ID || actor.OrgID != "org-1" {
		t.Errorf("token identity = %+v", actor)
	}
	if actor.Scope != "auth org" {
		t.Errorf("scope = %q, want %q", actor.Scope, "auth org")
	}

	if sub, err := token.VerifyCsrf(res.CsrfToken, testSecret); err != nil || sub != u.ID {
		t.Errorf("csrf token: sub=%q err=%v", sub, err)
	}
}

func TestAuthenticateUnknownAndWrongPasswordLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgViewer)

	_, errUnknown := f.svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	_, errWrong := f.svc.Authenticate(ctx, "alice@example.com", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", errWrong)
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "alice@example.com", "correct-horse")
	u.Status = authz.StatusInactive

	_, err := f.svc.Authenticate(context.Background(), "alice@example.com", "correct-horse")
	if !errors.Is(err, ErrInactiveAccount) {
		t.Errorf("want ErrInactiveAccount, got %v", err)
	}
}

func TestAuthenticateNoPasswordConfigured(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "alice@example.com", "correct-horse")
	delete(f.users.passwords, u.ID)

	_, err := f.svc.Authenticate(context.Background(), "alice@example.com", "correct-horse")
	if !errors.Is(err, ErrCredentialsNotConfigured) {
		t.Errorf("want ErrCredentialsNotConfigured, got %v", err)
	}
}

func TestAuthenticateCollectsAllValidationViolations(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Authenticate(context.Background(), "not-an-email", "short")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(vErr.Violations) != 2 {
		t.Errorf("want both violations reported, got %v", vErr.Violations)
	}
}

func TestAuthenticateMultiOrgNeedsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgAdmin)
	f.addMembership(u.ID, "org-2", "Globex", authz.StatusActive, authz.RoleOrgViewer)
	f.addMembership(u.ID, "org-3", "Initech", authz.StatusInactive, authz.RoleOrgViewer)

	res, err := f.svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !res.NeedsOrgSelection {
		t.Fatal("multi-org user should need org selection")
	}
	if len(res.Orgs) != 2 {
		t.Errorf("inactive membership must not be offered, got %d options", len(res.Orgs))
	}

	actor, err := token.VerifyBearer(res.Token, testSecret)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if actor.Scope != ScopeAuth || actor.OrgID != "" {
		t.Errorf("restricted token = %+v", actor)
	}

	// The restricted token upgrades through SelectOrg.
	full, err := f.svc.SelectOrg(ctx, res.Token, "org-2")
	if err != nil {
		t.Fatalf("SelectOrg failed: %v", err)
	}
	upgraded, err := token.VerifyBearer(full.Token, testSecret)
	if err != nil {
		t.Fatalf("upgraded token does not verify: %v", err)
	}
	if upgraded.OrgID != "org-2" || upgraded.Scope != "auth org" {
		t.Errorf("upgraded token = %+v", upgraded)
	}
}

func TestSelectOrgRejectsNonMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgAdmin)
	f.addMembership(u.ID, "org-2", "Globex", authz.StatusInactive, authz.RoleOrgViewer)
	f.orgs.orgs["org-9"] = &org.Org{ID: "org-9", Name: "Other"}

	res, err := f.svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if _, err := f.svc.SelectOrg(ctx, res.Token, "org-9"); !errors.Is(err, org.ErrMembershipNotFound) {
		t.Errorf("non-member org: got %v", err)
	}
	if _, err := f.svc.SelectOrg(ctx, res.Token, "org-2"); !errors.Is(err, org.ErrMembershipNotFound) {
		t.Errorf("inactive membership: got %v", err)
	}
}

func TestAuthenticateTokenResolvesActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgAdmin)

	res, err := f.svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	actor, err := f.svc.AuthenticateToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("AuthenticateToken failed: %v", err)
	}
	if actor.User.ID != u.ID || actor.OrgID != "org-1" {
		t.Errorf("actor = %+v", actor)
	}
	if !actor.HasScope(ScopeOrg) {
		t.Error("actor should carry org scope")
	}
	if !actor.Can(authz.PermUsersCreate) {
		t.Error("OrgAdmin should be able to create users")
	}
	if actor.IsSuperuser() {
		t.Error("OrgAdmin is not a superuser")
	}
}

func TestAuthenticateTokenStaleReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "alice@example.com", "correct-horse")
	f.addMembership(u.ID, "org-1", "Acme", authz.StatusActive, authz.RoleOrgAdmin)

	res, err := f.svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	// Org vanishes after the token was issued.
	delete(f.orgs.orgs, "org-1")
	if _, err := f.svc.AuthenticateToken(ctx, res.Token); !errors.Is(err, ErrInvalidClient) {
		t.Errorf("vanished org: got %v", err)
	}

	// User vanishes too.
	f.orgs.orgs["org-1"] = &org.Org{ID: "org-1", Name: "Acme"}
	delete(f.users.users, u.ID)
	if _, err := f.svc.AuthenticateToken(ctx, res.Token); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("vanished user: got %v", err)
	}
}

func TestAuthenticateTokenRejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AuthenticateToken(context.Background(), "not-a-token")
	if !errors.Is(err, token.ErrInvalidToken) {
		t.Errorf("want ErrInvalidToken, got %v", err)
	}
}

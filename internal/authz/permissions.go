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

package authz

import "sort"

// Permission is a fine-grained capability name. Like roles, the set is
// closed; permissions are derived from roles, never stored directly.
type Permission string

const (
	PermOrgsCreate Permission = "orgs.create"
	PermOrgsEdit   Permission = "orgs.edit"
	PermOrgsDelete Permission = "orgs.delete"
	PermOrgsList   Permission = "orgs.list"
	PermOrgsView   Permission = "orgs.view"

	PermUsersCreate Permission = "users.create"
	PermUsersEdit   Permission = "users.edit"
	PermUsersDelete Permission = "users.delete"
	PermUsersList   Permission = "users.list"
	PermUsersView   Permission = "users.view"

	PermAppsCreate Permission = "apps.create"
	PermAppsEdit   Permission = "apps.edit"
	PermAppsDelete Permission = "apps.delete"
	PermAppsList   Permission = "apps.list"
	PermAppsView   Permission = "apps.view"

	PermMembersManage Permission = "members.manage"
)

// rolePermissions maps each role to its default capabilities.
var rolePermissions = map[Role][]Permission{
	RoleSuperuser: {
		PermOrgsCreate, PermOrgsEdit, PermOrgsDelete, PermOrgsList, PermOrgsView,
		PermUsersCreate, PermUsersEdit, PermUsersDelete, PermUsersList, PermUsersView,
		PermAppsCreate, PermAppsEdit, PermAppsDelete, PermAppsList, PermAppsView,
		PermMembersManage,
	},
	RoleOrgAdmin: {
		PermOrgsList, PermOrgsView,
		PermUsersCreate, PermUsersEdit, PermUsersDelete, PermUsersList, PermUsersView,
		PermAppsList, PermAppsView,
		PermMembersManage,
	},
	RoleOrgEditor: {
		PermOrgsList, PermOrgsView,
		PermUsersList, PermUsersView,
		PermAppsList, PermAppsView,
	},
	RoleOrgViewer: {
		PermOrgsList, PermOrgsView,
		PermUsersList, PermUsersView,
	},
}

// RolePermissions returns the capabilities of a single role.
func RolePermissions(role Role) []Permission {
	return rolePermissions[role]
}

// RolesPermissions returns the deduplicated, sorted union of the
// capabilities of all given roles. Sorting keeps the expansion stable
// regardless of role order.
func RolesPermissions(roles []Role) []Permission {
	seen := make(map[Permission]struct{})
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			seen[p] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

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

// Package authz defines the closed role vocabulary used for membership
// access control and the permission sets each role expands to.
package authz

import (
	"fmt"
	"strings"
)

// Role is a membership role. The vocabulary is closed: anything outside
// the constants below is rejected before it can reach storage.
type Role string

const (
	RoleSuperuser Role = "Superuser"
	RoleOrgAdmin  Role = "OrgAdmin"
	RoleOrgEditor Role = "OrgEditor"
	RoleOrgViewer Role = "OrgViewer"
)

// RolesError reports every value that failed role conversion, not just
// the first.
type RolesError struct {
	Invalid []string
}

func (e *RolesError) Error() string {
	return fmt.Sprintf("invalid roles: %s", strings.Join(e.Invalid, ", "))
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperuser, RoleOrgAdmin, RoleOrgEditor, RoleOrgViewer:
		return Role(s), nil
	default:
		return "", &RolesError{Invalid: []string{s}}
	}
}

// ToRoles converts a list of strings to roles. On failure the returned
// *RolesError lists every invalid entry.
func ToRoles(list []string) ([]Role, error) {
	roles := make([]Role, 0, len(list))
	var invalid []string
	for _, s := range list {
		role, err := ParseRole(s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		roles = append(roles, role)
	}
	if len(invalid) > 0 {
		return nil, &RolesError{Invalid: invalid}
	}
	return roles, nil
}

// RolesValid reports whether every string in list is a member of the
// closed vocabulary.
func RolesValid(list []string) bool {
	_, err := ToRoles(list)
	return err == nil
}

// Strings converts roles back to their string form, the inverse of
// ToRoles.
func Strings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Contains reports whether roles includes want. Role sets are unordered
// for authorization decisions.
func Contains(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

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
	"strings"

	"github.com/yaasproject/yaas/internal/authz"
)

// Actor is a fully resolved caller: the verified token identity joined with
// the current user record and org membership.
type Actor struct {
	User        *User
	OrgID       string
	Scope       string
	Roles       []authz.Role
	Permissions []authz.Permission
}

// HasScope reports whether the actor's space-delimited scope string contains
// the given scope.
func (a *Actor) HasScope(scope string) bool {
	for _, s := range strings.Fields(a.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

// IsSuperuser reports whether the actor holds the Superuser role in its
// current org.
func (a *Actor) IsSuperuser() bool {
	return authz.Contains(a.Roles, authz.RoleSuperuser)
}

// Can reports whether the actor's role set grants the permission.
func (a *Actor) Can(p authz.Permission) bool {
	for _, have := range a.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

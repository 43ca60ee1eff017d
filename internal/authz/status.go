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

import (
	"errors"
	"fmt"
)

// Status is the activation state of a user account or an org membership.
// Inactive subjects fail authentication and membership checks.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ErrStatusInvalid is returned for a status outside the closed set.
var ErrStatusInvalid = errors.New("invalid status")

// ParseStatus converts a raw string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrStatusInvalid, s)
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

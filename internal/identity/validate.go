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

import "strings"

const (
	maxEmailLength    = 100
	minPasswordLength = 8
	maxPasswordLength = 60
)

// ValidationError reports every violated field constraint at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// validateCredentials checks the structural shape of a login request before
// any storage lookup. All violations are collected, not just the first.
func validateCredentials(email, pw string) error {
	var violations []string

	if email == "" {
		violations = append(violations, "email is required")
	} else {
		if len(email) > maxEmailLength {
			violations = append(violations, "email exceeds maximum length")
		}
		at := strings.Index(email, "@")
		if at <= 0 || at == len(email)-1 {
			violations = append(violations, "email is malformed")
		}
	}

	if len(pw) < minPasswordLength {
		violations = append(violations, "password is too short")
	} else if len(pw) > maxPasswordLength {
		violations = append(violations, "password is too long")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

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

// Package id generates prefixed, time-sortable identifiers.
//
// An identifier is a three-letter type prefix, an underscore, and a
// UUIDv7 in its 32-character hex form: usr_0190f6c3a7e17... (36 chars).
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Well-known identifier prefixes.
const (
	PrefixUser      = "usr"
	PrefixOrg       = "org"
	PrefixApp       = "app"
	PrefixOauthCode = "oac"
)

// Length of every generated identifier.
const Length = 36

// New returns a fresh prefixed identifier. The random component is a
// UUIDv7, so identifiers of the same prefix sort by creation time.
func New(prefix string) string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the platform RNG does, which is not
		// recoverable at this level.
		panic(err)
	}
	return prefix + "_" + hex.EncodeToString(u[:])
}

// Valid reports whether s looks like an identifier produced by New:
// correct length, a prefix separator, and a parseable UUIDv7 component.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	if s[3] != '_' {
		return false
	}
	u, err := uuid.Parse(s[4:])
	if err != nil {
		return false
	}
	return u.Version() == 7
}

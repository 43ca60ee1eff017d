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

package oauth

import "errors"

var (
	// ErrAppNotFound is returned when no app matches the given client id.
	ErrAppNotFound = errors.New("app not found")

	// ErrAppNotRegistered is returned when the app exists but is not
	// registered to the organization the caller is acting in.
	ErrAppNotRegistered = errors.New("app not registered to organization")

	// ErrInvalidRedirectURI is returned when the requested redirect URI is
	// not trusted by the app's registered redirect URI.
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// ErrCodeNotFound is returned when an authorization code does not exist
	// or has already been exchanged.
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrCodeExpired is returned when an authorization code exists but its
	// lifetime has elapsed.
	ErrCodeExpired = errors.New("authorization code expired")

	// ErrInvalidClient is returned when exchange parameters do not match the
	// issued code or the client secret is wrong.
	ErrInvalidClient = errors.New("invalid client")
)

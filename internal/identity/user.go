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

// Package identity holds user accounts and the credential verification flow
// that turns an email and password into a scoped bearer token.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/yaasproject/yaas/internal/authz"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so a caller cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount is returned for a correct password on a
	// deactivated account.
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrCredentialsNotConfigured is returned when the account exists but
	// has no password set.
	ErrCredentialsNotConfigured = errors.New("credentials not configured")

	// ErrInvalidClient is returned when a token references an organization
	// that no longer resolves.
	ErrInvalidClient = errors.New("invalid client")

	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user already exists")
)

// User is an account holder. A user exists independently of any org;
// memberships grant roles per org.
type User struct {
	ID        string
	Email     string
	Name      string
	Status    authz.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u.Status == authz.StatusActive
}

// StoredPassword is a user's argon2id password hash.
type StoredPassword struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// UserRepository provides access to user accounts and their credentials.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetPassword(ctx context.Context, userID, passwordHash string) error
	// GetPassword returns ErrCredentialsNotConfigured when the user has no
	// password row.
	GetPassword(ctx context.Context, userID string) (*StoredPassword, error)
	Delete(ctx context.Context, id string) error
}

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
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/authz"
	"github.com/yaasproject/yaas/internal/id"
	"github.com/yaasproject/yaas/internal/observability/logger"
	"github.com/yaasproject/yaas/internal/password"
)

var (
	// ErrSetupUnavailable is returned when no setup key is outstanding,
	// either because a superuser already exists or because the key was
	// already consumed.
	ErrSetupUnavailable = errors.New("setup is not available")

	// ErrSetupKeyMismatch is returned when the presented key does not
	// equal the issued one.
	ErrSetupKeyMismatch = errors.New("setup key mismatch")
)

// BootstrapStore persists the first superuser. CreateSuperuser must create
// the user, its password, the bootstrap org, the Superuser membership and
// the superuser record in one transaction.
type BootstrapStore interface {
	SuperuserExists(ctx context.Context) (bool, error)
	CreateSuperuser(ctx context.Context, user *User, passwordHash, orgName string) error
}

// Bootstrapper runs the one-time superuser setup. When the superuser set is
// empty at startup it mints a random setup key and surfaces it through the
// process log, never over the network. The key authorizes exactly one
// ConsumeSetupKey call.
type Bootstrapper struct {
	store   BootstrapStore
	hasher  *password.Hasher
	audit   audit.Logger
	orgName string

	mu       sync.Mutex
	key      string
	consumed bool
}

// NewBootstrapper creates a new bootstrapper. orgName is the name of the org
// created for the first superuser.
func NewBootstrapper(store BootstrapStore, hasher *password.Hasher, auditLogger audit.Logger, orgName string) *Bootstrapper {
	if orgName == "" {
		orgName = "Superuser"
	}
	return &Bootstrapper{store: store, hasher: hasher, audit: auditLogger, orgName: orgName}
}

// EnsureSetupKey mints a setup key if the system has no superuser yet. It
// returns the key, or "" when setup is not needed. The key is also written
// to the process log so an operator can pick it up out-of-band.
func (b *Bootstrapper) EnsureSetupKey(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exists, err := b.store.SuperuserExists(ctx)
	if err != nil {
		return "", fmt.Errorf("check superuser set: %w", err)
	}
	if exists {
		return "", nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate setup key: %w", err)
	}
	b.key = base64.RawURLEncoding.EncodeToString(raw)
	b.consumed = false

	slog.InfoContext(ctx, "superuser setup key issued, redeem it via the setup endpoint",
		slog.String("setup_key", b.key))
	b.audit.Log(ctx, audit.Event{Type: audit.TypeSetupKeyIssued})

	return b.key, nil
}

// ConsumeSetupKey redeems the setup key and creates the first superuser
// together with its org and membership. The key works once; any failure
// before storage leaves it redeemable.
func (b *Bootstrapper) ConsumeSetupKey(ctx context.Context, key, email, pw string) (*User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.key == "" || b.consumed {
		b.auditReject(ctx, "no outstanding setup key")
		return nil, ErrSetupUnavailable
	}
	if subtle.ConstantTimeCompare([]byte(b.key), []byte(key)) != 1 {
		b.auditReject(ctx, "key mismatch")
		return nil, ErrSetupKeyMismatch
	}

	if err := validateCredentials(email, pw); err != nil {
		return nil, err
	}

	// Re-check under the lock: another process may have bootstrapped the
	// shared store since the key was issued.
	exists, err := b.store.SuperuserExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check superuser set: %w", err)
	}
	if exists {
		b.consumed = true
		b.auditReject(ctx, "superuser already exists")
		return nil, ErrSetupUnavailable
	}

	hash, err := b.hasher.Hash(pw)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:        id.New(id.PrefixUser),
		Email:     email,
		Status:    authz.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.store.CreateSuperuser(ctx, user, hash, b.orgName); err != nil {
		return nil, fmt.Errorf("create superuser: %w", err)
	}

	b.consumed = true
	b.key = ""

	slog.InfoContext(ctx, "superuser account created",
		logger.UserID(user.ID), logger.Email(user.Email))

	b.audit.Log(ctx, audit.Event{
		Type:     audit.TypeSetupKeyConsumed,
		ActorID:  user.ID,
		Resource: user.ID,
		Metadata: map[string]any{audit.AttrEmail: email},
	})

	return user, nil
}

func (b *Bootstrapper) auditReject(ctx context.Context, reason string) {
	b.audit.Log(ctx, audit.Event{
		Type:     audit.TypeSetupKeyRejected,
		Metadata: map[string]any{audit.AttrReason: reason},
	})
}

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

// Package audit records security-relevant events through the structured
// logger. Events are best-effort: auditing never fails the operation
// that produced the event.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/yaasproject/yaas/internal/observability/logger"
)

// Event types
const (
	TypeLoginSuccess      = "login_success"
	TypeLoginFailed       = "login_failed"
	TypeTokenIssued       = "token_issued"
	TypeTokenRejected     = "token_rejected"
	TypeCodeIssued        = "code_issued"
	TypeCodeExchanged     = "code_exchanged"
	TypeCodeRevoked       = "code_revoked"
	TypeSetupKeyIssued    = "setup_key_issued"
	TypeSetupKeyConsumed  = "setup_key_consumed"
	TypeSetupKeyRejected  = "setup_key_rejected"
	TypeMemberRolesChange = "member_roles_changed"
	TypeUserCreated       = "user_created"
	TypePasswordSet       = "password_set"
)

// Common metadata keys.
const (
	AttrReason = "reason"
	AttrEmail  = "email"
	AttrAppID  = "app_id"
	AttrScope  = "scope"
)

// Event represents an auditable action.
type Event struct {
	Type      string
	OrgID     string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
}

// Logger is the interface services record audit events through.
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger on top of the process slog logger.
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger.
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event.
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		logger.OrgID(event.OrgID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if len(event.Metadata) > 0 {
		group := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, logger.Component("audit"))...)
}

// isSecret checks if a key likely contains a secret.
func isSecret(key string) bool {
	switch key {
	case "password", "secret", "client_secret", "token", "setup_key", "authorization":
		return true
	}
	return false
}

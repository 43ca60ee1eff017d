package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSlogLoggerEmitsEventAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	NewSlogLogger().Log(context.Background(), Event{
		Type:     TypeCodeIssued,
		OrgID:    "org-1",
		ActorID:  "usr-1",
		Resource: "oac-1",
		Metadata: map[string]any{
			AttrScope:       "auth org",
			"client_secret": "hunter2",
		},
	})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal audit line: %v", err)
	}

	if rec["audit_type"] != TypeCodeIssued {
		t.Errorf("audit_type = %v", rec["audit_type"])
	}
	if rec["org_id"] != "org-1" {
		t.Errorf("org_id = %v", rec["org_id"])
	}
	if rec["component"] != "audit" {
		t.Errorf("component = %v", rec["component"])
	}

	meta, ok := rec["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata missing: %v", rec)
	}
	if meta["scope"] != "auth org" {
		t.Errorf("scope = %v", meta["scope"])
	}
	if meta["client_secret"] != "[REDACTED]" {
		t.Errorf("client_secret = %v, want redacted", meta["client_secret"])
	}
}

func TestIsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"secret", true},
		{"client_secret", true},
		{"token", true},
		{"setup_key", true},
		{"user_id", false},
		{"org_id", false},
		{"email", false},
		{"reason", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

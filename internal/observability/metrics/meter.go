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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter.
type Meter struct {
	meter metric.Meter
}

// New creates a meter instance, noop when disabled.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}, nil
	}
	return &Meter{meter: otel.Meter(serviceName)}, nil
}

// AuthCounters holds the counters recorded by the authentication flows.
type AuthCounters struct {
	LoginAttempts  metric.Int64Counter
	TokensIssued   metric.Int64Counter
	CodesExchanged metric.Int64Counter
}

// NewAuthCounters creates the authentication counters.
func (m *Meter) NewAuthCounters() (*AuthCounters, error) {
	attempts, err := m.meter.Int64Counter("auth_login_attempts_total",
		metric.WithDescription("Credential authentication attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	issued, err := m.meter.Int64Counter("auth_tokens_issued_total",
		metric.WithDescription("Bearer tokens issued"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	exchanged, err := m.meter.Int64Counter("oauth_codes_exchanged_total",
		metric.WithDescription("Authorization codes exchanged by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return &AuthCounters{
		LoginAttempts:  attempts,
		TokensIssued:   issued,
		CodesExchanged: exchanged,
	}, nil
}

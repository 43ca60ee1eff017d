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

import "testing"

func TestIsRedirectAllowed(t *testing.T) {
	tests := []struct {
		name       string
		registered string
		requested  string
		want       bool
	}{
		{"exact match", "https://app.example.com/cb", "https://app.example.com/cb", true},
		{"path extension", "https://app.example.com/cb", "https://app.example.com/cb/done", true},
		{"query string on requested", "https://app.example.com/cb", "https://app.example.com/cb?next=1", true},
		{"literal prefix without separator", "https://app.example.com/cb", "https://app.example.com/cbx", true},
		{"scheme mismatch", "https://app.example.com/cb", "http://app.example.com/cb", false},
		{"host mismatch", "https://app.example.com/cb", "https://evil.example.com/cb", false},
		{"subdomain mismatch", "https://example.com/cb", "https://app.example.com/cb", false},
		{"explicit port vs none", "https://app.example.com/cb", "https://app.example.com:443/cb", false},
		{"matching explicit ports", "http://localhost:8080/cb", "http://localhost:8080/cb/x", true},
		{"port mismatch", "http://localhost:8080/cb", "http://localhost:9090/cb", false},
		{"path not a prefix", "https://app.example.com/cb", "https://app.example.com/other", false},
		{"requested shorter than registered", "https://app.example.com/cb/deep", "https://app.example.com/cb", false},
		{"relative requested", "https://app.example.com/cb", "/cb", false},
		{"malformed requested", "https://app.example.com/cb", "://nope", false},
		{"malformed registered only exact matches", "://nope", "https://app.example.com/cb", false},
		{"malformed exact match", "://nope", "://nope", true},
		{"scheme only no host", "https://app.example.com/cb", "https:///cb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRedirectAllowed(tt.registered, tt.requested); got != tt.want {
				t.Errorf("IsRedirectAllowed(%q, %q) = %v, want %v", tt.registered, tt.requested, got, tt.want)
			}
		})
	}
}

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

import (
	"net/url"
	"strings"
)

// IsRedirectAllowed decides whether a requested redirect URI is trusted by
// the app's registered redirect URI.
//
// An exact string match is always allowed. Otherwise both values must parse
// as absolute URLs with a host, the scheme, host and port must match exactly
// (a URI with an explicit port never matches one without), and the requested
// path must extend the registered path as a literal string prefix.
func IsRedirectAllowed(registered, requested string) bool {
	if registered == requested {
		return true
	}

	reg, err := url.Parse(registered)
	if err != nil || !reg.IsAbs() || reg.Host == "" {
		return false
	}
	req, err := url.Parse(requested)
	if err != nil || !req.IsAbs() || req.Host == "" {
		return false
	}

	if reg.Scheme != req.Scheme {
		return false
	}
	if reg.Hostname() != req.Hostname() {
		return false
	}
	if reg.Port() != req.Port() {
		return false
	}

	return strings.HasPrefix(req.Path, reg.Path)
}

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

// Package token issues and verifies the two signed token kinds used by
// the service: bearer tokens carrying an actor identity and short-lived
// CSRF tokens carrying only a subject.
//
// Both kinds are HS256 JWTs under the same process-wide secret, but they
// live in separate signing domains: every token carries a "use" claim
// ("bearer" or "csrf") that is checked at verification, so a CSRF token
// never verifies as a bearer token and vice versa.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken means the token is structurally malformed, carries
	// the wrong signature, belongs to the other signing domain, or
	// decodes to claims the domain rejects (e.g. an empty subject).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired means the token was authentic but is past expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Token lifetimes. Bearer lifetime is the implementation-chosen default;
// the CSRF lifetime is a fixed one-hour contract.
const (
	BearerLifetime = 24 * time.Hour
	CsrfLifetime   = time.Hour
)

const (
	useBearer = "bearer"
	useCsrf   = "csrf"
)

// Actor is the identity embedded in a bearer token: the authenticated
// user, the organization the token is scoped to, and a space-delimited
// permission scope string.
type Actor struct {
	ID    string
	OrgID string
	Scope string
}

// bearerClaims is the wire shape of a bearer token.
type bearerClaims struct {
	OrgID string `json:"oid"`
	Scope string `json:"scope"`
	Use   string `json:"use"`
	jwt.RegisteredClaims
}

// csrfClaims is the wire shape of a CSRF token.
type csrfClaims struct {
	Use string `json:"use"`
	jwt.RegisteredClaims
}

// IssueBearer signs a bearer token for actor. Each call embeds a fresh
// issuance timestamp, so two tokens for the same actor are not equal.
func IssueBearer(actor Actor, secret string) (string, error) {
	now := time.Now().UTC()
	claims := bearerClaims{
		OrgID: actor.OrgID,
		Scope: actor.Scope,
		Use:   useBearer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(BearerLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyBearer checks signature and expiry and returns the embedded
// actor. It does not re-check that the referenced user or organization
// still exist; that is the caller's responsibility.
func VerifyBearer(tokenStr, secret string) (Actor, error) {
	var claims bearerClaims
	if err := parse(tokenStr, secret, &claims); err != nil {
		return Actor{}, err
	}

	// Tokens from the csrf domain, or bearer tokens that decode without
	// a meaningful identity, are rejected outright.
	if claims.Use != useBearer || claims.Subject == "" || claims.Scope == "" {
		return Actor{}, ErrInvalidToken
	}

	return Actor{
		ID:    claims.Subject,
		OrgID: claims.OrgID,
		Scope: claims.Scope,
	}, nil
}

// IssueCsrf signs a short-lived CSRF token for subject. Subject must be
// non-empty; that is the caller's contract and is not re-validated here.
func IssueCsrf(subject, secret string) (string, error) {
	now := time.Now().UTC()
	claims := csrfClaims{
		Use: useCsrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(CsrfLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyCsrf checks signature and expiry and returns the embedded
// subject. A structurally valid token with an empty subject is an
// error, never an empty return.
func VerifyCsrf(tokenStr, secret string) (string, error) {
	var claims csrfClaims
	if err := parse(tokenStr, secret, &claims); err != nil {
		return "", err
	}

	if claims.Use != useCsrf || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func parse(tokenStr, secret string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrInvalidToken
	}
}

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

package http

import (
	"context"

	"github.com/yaasproject/yaas/internal/identity"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the resolved actor in the request context.
func WithActor(ctx context.Context, actor *identity.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the authenticated actor from context, or nil.
func GetActor(ctx context.Context) *identity.Actor {
	if actor, ok := ctx.Value(actorKey).(*identity.Actor); ok {
		return actor
	}
	return nil
}

// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/go-accounts/internal/ctxkeys"
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID int64
	Token  string
}

// WithIdentity stores the identity in the context. A nil identity marks the
// caller as anonymous.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxkeys.Identity{}, id)
}

// GetIdentity returns the caller identity from the context, or nil if anonymous.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxkeys.Identity{}).(*Identity); ok {
		return id
	}
	return nil
}

// UserID returns the ID of the authenticated caller, or 0 if anonymous.
func UserID(ctx context.Context) int64 {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return 0
}

// IsAuthenticated returns true if the context has an authenticated caller.
func IsAuthenticated(ctx context.Context) bool {
	return GetIdentity(ctx) != nil
}

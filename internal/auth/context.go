package auth

import (
	"context"
)

type ctxKey string

const (
	claimsKey  ctxKey = "sessionClaims"
	sessionKey ctxKey = "trackedSessionID"
)

func WithClaims(ctx context.Context, c SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func FromContext(ctx context.Context) SessionClaims {
	if v, ok := ctx.Value(claimsKey).(SessionClaims); ok {
		return v
	}
	return SessionClaims{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).UserID
}

func Role(ctx context.Context) string {
	return FromContext(ctx).Role
}

// WithSessionID tags the context with the tracked UserSession row id, when
// the client supplied one via X-Session-ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey).(string); ok {
		return v
	}
	return ""
}

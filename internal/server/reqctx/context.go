// Package reqctx carries per-request values (caller identity, session id,
// client metadata) between the HTTP middleware, handlers, and services.
package reqctx

import (
	"context"

	"afyabima/backend/internal/authz"
	userdomain "afyabima/backend/internal/user/domain"
)

type contextKey struct{ name string }

var (
	identityKey  = contextKey{"identity"}
	sessionIDKey = contextKey{"session_id"}
	metaKey      = contextKey{"request_meta"}
)

type requestMeta struct {
	ip        string
	userAgent string
}

// WithIdentity returns a context carrying the authenticated caller and its
// session id. Handlers and services read them via GetIdentity / GetSessionID.
func WithIdentity(ctx context.Context, userID string, role userdomain.Role, sessionID string) context.Context {
	ctx = context.WithValue(ctx, identityKey, authz.Identity{UserID: userID, Role: role})
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetIdentity returns the authenticated caller and true if set.
func GetIdentity(ctx context.Context) (authz.Identity, bool) {
	v, ok := ctx.Value(identityKey).(authz.Identity)
	return v, ok
}

// GetSessionID returns the session id from context and true if set.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

// WithRequestMeta returns a context carrying the client IP and user agent.
func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, metaKey, requestMeta{ip: ip, userAgent: userAgent})
}

// RequestMeta returns the client IP and user agent captured by the HTTP
// middleware. It satisfies audit.MetaExtractor.
func RequestMeta(ctx context.Context) (ip, userAgent string) {
	m, ok := ctx.Value(metaKey).(requestMeta)
	if !ok {
		return "", ""
	}
	return m.ip, m.userAgent
}

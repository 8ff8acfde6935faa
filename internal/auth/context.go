package auth

import (
	"context"
	"fmt"
)

// Authentication context types.
const (
	TypeOAuth  = "oauth"
	TypeAPIKey = "api_key"
)

// Context carries the resolved authentication identity for one request.
// It is created by the middleware and flows through context.Context into
// MCP tool handlers for per-call scope enforcement.
type Context struct {
	Type     string
	UserID   string
	ClientID string
	Scopes   []string
}

// HasScope reports whether the context grants the given scope. API-key
// contexts are treated as a trusted administrative credential and satisfy
// every scope check.
func (a *Context) HasScope(scope string) bool {
	if a == nil {
		return false
	}
	if a.Type == TypeAPIKey {
		return true
	}
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type contextKey int

const ctxAuth contextKey = iota

// WithContext attaches the authentication context to ctx.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxAuth, ac)
}

// FromContext returns the authentication context, or nil when the request
// was not authenticated.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(ctxAuth).(*Context)
	return ac
}

// RequireScope fails with ErrPermissionDenied when ctx carries no
// authentication context or the context lacks the required scope.
func RequireScope(ctx context.Context, scope string) error {
	ac := FromContext(ctx)
	if ac == nil {
		return fmt.Errorf("%w: no authentication context", ErrPermissionDenied)
	}
	if !ac.HasScope(scope) {
		return fmt.Errorf("%w: have %v, required %s", ErrPermissionDenied, ac.Scopes, scope)
	}
	return nil
}

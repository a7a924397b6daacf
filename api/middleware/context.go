package middleware

import (
	"context"

	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxCaller    contextKey = "caller"
)

// PrincipalFromContext returns the caller the Auth middleware verified. Controllers hand the
// value to services explicitly; services never read it from the context themselves.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

// WithPrincipal injects the verified caller into the context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

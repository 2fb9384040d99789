package middleware

import "context"

type principalKey struct{}

// principal is the authenticated caller attached by Auth.
type principal struct {
	userID   string
	role     string
	accessID string
}

func principalFrom(ctx context.Context) principal {
	if ctx == nil {
		return principal{}
	}
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

func withPrincipal(ctx context.Context, p principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func UserIDFromContext(ctx context.Context) string { return principalFrom(ctx).userID }

func RoleFromContext(ctx context.Context) string { return principalFrom(ctx).role }

// AccessIDFromContext returns the access token jti, which also keys the
// refresh session.
func AccessIDFromContext(ctx context.Context) string { return principalFrom(ctx).accessID }

// WithUserID sets the caller id, keeping any role already present. Used by
// tests and internal callers that bypass Auth.
func WithUserID(ctx context.Context, userID string) context.Context {
	p := principalFrom(ctx)
	p.userID = userID
	return withPrincipal(ctx, p)
}

func WithRole(ctx context.Context, role string) context.Context {
	p := principalFrom(ctx)
	p.role = role
	return withPrincipal(ctx, p)
}

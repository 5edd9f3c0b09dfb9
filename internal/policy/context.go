package policy

import (
	"context"

	"github.com/neyraq/portal/internal/models"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a context carrying the resolved principal.
// Set once per request by the session middleware.
func ContextWithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the principal placed in the context by the
// session middleware.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*models.Principal)
	return p, ok
}
